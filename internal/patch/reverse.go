package patch

// Reverse returns the change that would undo this one: Add and Delete swap
// kinds, and the old/new line numbers swap with them.
func (c Change) Reverse() Change {
	r := Change{Content: c.Content, OldLine: c.NewLine, NewLine: c.OldLine}
	switch c.Kind {
	case Add:
		r.Kind = Delete
	case Delete:
		r.Kind = Add
	default:
		r.Kind = Context
	}
	return r
}

// Reverse returns the hunk that would undo this one. Old and new ranges
// swap, and every change is reversed in place order.
func (h *Hunk) Reverse() Hunk {
	r := Hunk{
		OldStart:        h.NewStart,
		OldCount:        h.NewCount,
		NewStart:        h.OldStart,
		NewCount:        h.OldCount,
		FunctionContext: h.FunctionContext,
		Changes:         make([]Change, len(h.Changes)),
	}
	for i, c := range h.Changes {
		r.Changes[i] = c.Reverse()
	}
	return r
}

// Reverse returns the file patch that would undo this one: paths, modes
// and the new/deleted flags swap, and every hunk is reversed.
func (f *FilePatch) Reverse() FilePatch {
	r := FilePatch{
		OldPath:         f.NewPath,
		NewPath:         f.OldPath,
		IsNew:           f.IsDeleted,
		IsDeleted:       f.IsNew,
		IsRenamed:       f.IsRenamed,
		IsBinary:        f.IsBinary,
		OldMode:         f.NewMode,
		NewMode:         f.OldMode,
		SimilarityIndex: f.SimilarityIndex,
	}
	if f.Hunks != nil {
		r.Hunks = make([]Hunk, len(f.Hunks))
		for i := range f.Hunks {
			r.Hunks[i] = f.Hunks[i].Reverse()
		}
	}
	return r
}

// Reverse returns the patch that would undo this one. Applying the result
// to the post-patch state reproduces the pre-patch state byte for byte.
func (p *Patch) Reverse() *Patch {
	r := &Patch{Format: p.Format, Files: make([]FilePatch, len(p.Files))}
	for i := range p.Files {
		r.Files[i] = p.Files[i].Reverse()
	}
	return r
}
