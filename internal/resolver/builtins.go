package resolver

// predeclared lists the source-language's built-in function names. Ember has
// no BuiltIn opcode (internal/opcode carries only the general-purpose Call
// family), so these resolve to ast.Sentinel rather than an
// funcval.EntBuiltIn EntIndex: internal/codegen recognizes a Sentinel
// identifier by name at the call site and lowers it to a registered
// internal/ffi function instead of an ordinary PreCall/Call pair against a
// resolved value. DESIGN.md's entry for genNamedCall describes this lowering.
var predeclared = map[string]bool{
	"len":     true,
	"cap":     true,
	"append":  true,
	"make":    true,
	"panic":   true,
	"recover": true,
	"println": true,
	"close":   true,
	"delete":  true,
}
