package cure

import "fmt"

// Config is a typed map of compiler settings, following the same
// "path string -> typed value" shape the rest of the toolchain uses for
// configuration. Values are looked up by a dotted path such as
// "compiler.optimize".
type Config map[string]*cfgVal

// NewConfig creates a configuration primed with the defaults every
// compile needs: optimization level, and the host target descriptor
// (overridable for cross-targeting the C-ABI registry's platform
// externs).
func NewConfig() *Config {
	m := make(Config)
	m.SetInt("compiler.optimize", 0)
	m.SetString("target.os", hostTarget().String())
	return &m
}

type cfgValType int

const (
	cfgValUndefined cfgValType = iota
	cfgValBool
	cfgValInt
	cfgValString
)

func (vt cfgValType) String() string {
	return [...]string{"undefined", "bool", "int", "string"}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValUndefined {
		panic(fmt.Sprintf("can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("can't retrieve `%s` from `%s` setting", vt, v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	val := &cfgVal{}
	val.assignType(cfgValBool)
	val.asBool = v
	(*c)[path] = val
}

func (c *Config) SetInt(path string, v int) {
	val := &cfgVal{}
	val.assignType(cfgValInt)
	val.asInt = v
	(*c)[path] = val
}

func (c *Config) SetString(path string, v string) {
	val := &cfgVal{}
	val.assignType(cfgValString)
	val.asString = v
	(*c)[path] = val
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValBool)
		return val.asBool
	}
	panic(fmt.Sprintf("bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValInt)
		return val.asInt
	}
	panic(fmt.Sprintf("int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValString)
		return val.asString
	}
	panic(fmt.Sprintf("string setting `%s` does not exist", path))
}
