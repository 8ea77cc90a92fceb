// Package analyze infers semantic Python operations (renames, symbol
// additions and removals, import and decorator changes) from a parsed
// patch, falling back to literal line operations when no structural
// signal is present.
package analyze

// OpKind is the closed set of operations the analyzer can detect.
type OpKind int

const (
	OpClassAdd OpKind = iota
	OpClassDelete
	OpClassRename
	OpFunctionAdd
	OpFunctionDelete
	OpFunctionRename
	OpMethodAdd
	OpMethodDelete
	OpMethodRename
	OpDecoratorAdd
	OpDecoratorRemove
	OpImportAdd
	OpImportRemove
	OpLineRewrite
	OpLineInsert
	OpLineDelete
	OpFileCreate
	OpFileDelete
	OpFileRename
)

var opKindNames = map[OpKind]string{
	OpClassAdd:        "class_add",
	OpClassDelete:     "class_delete",
	OpClassRename:     "class_rename",
	OpFunctionAdd:     "function_add",
	OpFunctionDelete:  "function_delete",
	OpFunctionRename:  "function_rename",
	OpMethodAdd:       "method_add",
	OpMethodDelete:    "method_delete",
	OpMethodRename:    "method_rename",
	OpDecoratorAdd:    "decorator_add",
	OpDecoratorRemove: "decorator_remove",
	OpImportAdd:       "import_add",
	OpImportRemove:    "import_remove",
	OpLineRewrite:     "line_rewrite",
	OpLineInsert:      "line_insert",
	OpLineDelete:      "line_delete",
	OpFileCreate:      "file_create",
	OpFileDelete:      "file_delete",
	OpFileRename:      "file_rename",
}

func (k OpKind) String() string {
	if s, ok := opKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsRename reports whether the kind is one of the inferred rename pairs.
func (k OpKind) IsRename() bool {
	return k == OpClassRename || k == OpFunctionRename || k == OpMethodRename
}

// priority orders kinds for OptimalOperations: semantically richer
// operations first, literal line patches as the fallback, file-level
// bookkeeping last.
func (k OpKind) priority() int {
	switch k {
	case OpClassRename, OpFunctionRename, OpMethodRename:
		return 0
	case OpClassAdd, OpClassDelete, OpFunctionAdd, OpFunctionDelete:
		return 1
	case OpMethodAdd, OpMethodDelete:
		return 2
	case OpDecoratorAdd, OpDecoratorRemove:
		return 3
	case OpImportAdd, OpImportRemove:
		return 4
	case OpLineRewrite, OpLineInsert, OpLineDelete:
		return 5
	default:
		return 6
	}
}

// Confidence levels: directly observed operations are certain; rename
// pairing is a heuristic and never is.
const (
	ConfidenceObserved = 1.0
	ConfidenceInferred = 0.8
)

// Operation is one detected semantic edit. Details carries kind-specific
// fields ("name", "old_name"/"new_name", "class_name", "old_text"/
// "new_text", "start_line"/"end_line"). HunkIndex is -1 when the
// operation is not tied to a single hunk.
type Operation struct {
	Kind       OpKind
	FilePath   string
	Details    map[string]string
	HunkIndex  int
	Confidence float64
}

// Name returns the Details entry most callers want: the symbol name, or
// the new name for renames.
func (o *Operation) Name() string {
	if n, ok := o.Details["new_name"]; ok {
		return n
	}
	return o.Details["name"]
}
