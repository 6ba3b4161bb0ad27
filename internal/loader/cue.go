package loader

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// ParseCUE evaluates a CUE mapping document. The evaluated value must be
// concrete; definitions and constraints may be used freely to build it.
func ParseCUE(file string, data []byte) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(file))
	if err := v.Err(); err != nil {
		return nil, cueError(file, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(file, err)
	}

	doc := &Document{}
	if err := v.Decode(doc); err != nil {
		return nil, cueError(file, err)
	}
	doc.File = file
	cuePositions(v, doc)
	return doc, nil
}

// cueError flattens CUE errors, keeping the first position of each.
func cueError(file string, err error) error {
	pe := &ParseError{File: file}
	for _, e := range cueerrors.Errors(err) {
		msg := e.Error()
		if ps := cueerrors.Positions(e); len(ps) > 0 && ps[0].IsValid() {
			pe.Messages = append(pe.Messages, ps[0].String()+": "+msg)
			if pe.Line == 0 {
				pe.Line, pe.Column = ps[0].Line(), ps[0].Column()
			}
			continue
		}
		pe.Messages = append(pe.Messages, msg)
	}
	if len(pe.Messages) == 0 {
		pe.Messages = []string{err.Error()}
	}
	return pe
}

func cuePos(v cue.Value, sels ...cue.Selector) Pos {
	p := v.LookupPath(cue.MakePath(sels...)).Pos()
	if !p.IsValid() {
		return Pos{}
	}
	return Pos{Line: p.Line(), Column: p.Column()}
}

// cuePositions fills the positions Decode cannot carry.
func cuePositions(v cue.Value, doc *Document) {
	for i := range doc.Types {
		doc.Types[i].Pos = cuePos(v, cue.Str("types"), cue.Index(i))
	}
	for i := range doc.ComplexTypes {
		doc.ComplexTypes[i].Pos = cuePos(v, cue.Str("complexTypes"), cue.Index(i))
	}
	for i := range doc.Associations {
		doc.Associations[i].Pos = cuePos(v, cue.Str("associations"), cue.Index(i))
	}
	for i := range doc.StoreSets {
		doc.StoreSets[i].Pos = cuePos(v, cue.Str("storeSets"), cue.Index(i))
	}
	for i := range doc.Containers {
		c := &doc.Containers[i]
		cv := v.LookupPath(cue.MakePath(cue.Str("containers"), cue.Index(i)))
		c.Pos = cuePos(cv)
		for j := range c.Sets {
			s := &c.Sets[j]
			sv := cv.LookupPath(cue.MakePath(cue.Str("sets"), cue.Index(j)))
			s.Pos = cuePos(sv)
			cueTypeMappings(sv, s.TypeMappings)
		}
		for j := range c.FunctionImports {
			f := &c.FunctionImports[j]
			fv := cv.LookupPath(cue.MakePath(cue.Str("functionImports"), cue.Index(j)))
			f.Pos = cuePos(fv)
			for r := range f.Results {
				cueTypeMappings(fv.LookupPath(cue.MakePath(cue.Str("results"), cue.Index(r))), f.Results[r].TypeMappings)
			}
		}
	}
}

func cueTypeMappings(parent cue.Value, tms []TypeMappingDoc) {
	for k := range tms {
		tm := &tms[k]
		tv := parent.LookupPath(cue.MakePath(cue.Str("typeMappings"), cue.Index(k)))
		tm.Pos = cuePos(tv)
		for l := range tm.Fragments {
			f := &tm.Fragments[l]
			fv := tv.LookupPath(cue.MakePath(cue.Str("fragments"), cue.Index(l)))
			f.Pos = cuePos(fv)
			for m := range f.Conditions {
				f.Conditions[m].Pos = cuePos(fv, cue.Str("conditions"), cue.Index(m))
			}
		}
	}
}
