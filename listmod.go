package psycsp

import "bytes"

// listSuffix is the PSYC naming convention for list-valued modifiers,
// e.g. "_target_list", "_amount_list_coins".
var listSuffix = []byte("_list")

// IsListModifierName reports whether name follows the PSYC convention for
// list-valued modifiers (ends in "_list", optionally followed by a type
// suffix such as "_list_coins"). It is advisory only: PacketParser and
// ListParser never consult it themselves; callers may use it to pick a
// default grammar for ListParser when the enclosing modifier's
// length-prefix flag alone does not decide it.
func IsListModifierName(name []byte) bool {
	for rest := name; ; {
		i := bytes.Index(rest, listSuffix)
		if i < 0 {
			return false
		}
		rest = rest[i+len(listSuffix):]
		if len(rest) == 0 || rest[0] == '_' {
			return true
		}
	}
}
