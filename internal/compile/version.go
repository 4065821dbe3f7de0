package compile

// DTVersion stamps every compiled Spec (spec §6 "Compiled spec format ...
// a tuple-of-tuples with a dtversion stamp"). A caller persisting a
// compiled spec and reloading it later gets an advisory warning, not a
// hard failure, on a stamp mismatch — CompatibleVersion reports which.
const DTVersion = 1

// CompatibleVersion reports whether a compiled spec stamped with v can be
// trusted as-is, or should be advisory-warned and recompiled from the raw
// source instead.
func CompatibleVersion(v int) bool {
	return v == DTVersion
}
