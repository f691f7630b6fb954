package processor

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/phambaophuc/pdf-watermark/internal/models"
)

// maxPageTreeDepth bounds the walk up /Parent links on broken page trees.
const maxPageTreeDepth = 64

func stampDocument(ctx *model.Context, phrase string, mode models.WatermarkMode) error {
	fontRef, err := newFontObject(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to add stamp font: %v", ErrInvalidDocument, err)
	}

	encoded := encodePhrase(phrase)
	width := textWidth(encoded, fontSizeFor(mode))

	for _, pageNr := range TargetPages(ctx.PageCount, mode) {
		if err := stampPage(ctx, pageNr, fontRef, encoded, mode, width); err != nil {
			return fmt.Errorf("%w: page %d: %v", ErrInvalidDocument, pageNr, err)
		}
	}

	return nil
}

func stampPage(ctx *model.Context, pageNr int, fontRef *types.IndirectRef, encoded string, mode models.WatermarkMode, width float64) error {
	// Resources are not consolidated: that parses the page content and fails
	// on content referencing undeclared resources, which relaxed mode accepts.
	pageDict, _, inhPAttrs, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return err
	}
	if pageDict == nil {
		return fmt.Errorf("page dict not found")
	}

	box, err := pageBox(ctx, pageDict, inhPAttrs)
	if err != nil {
		return err
	}

	if err := ensureOwnResources(ctx, pageDict, inhPAttrs); err != nil {
		return err
	}

	if err := addFontResource(ctx, pageDict, fontRef); err != nil {
		return err
	}

	content := buildStampContent(encoded, PlacementFor(mode, box, width))
	return appendContent(ctx, pageDict, content)
}

func newFontObject(ctx *model.Context) (*types.IndirectRef, error) {
	d := types.Dict(map[string]types.Object{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name(WatermarkFont),
		"Encoding": types.Name("WinAnsiEncoding"),
	})
	return ctx.IndRefForNewObject(d)
}

// pageBox reads the page's MediaBox, falling back to the one inherited from
// the page tree.
func pageBox(ctx *model.Context, pageDict types.Dict, inhPAttrs *model.InheritedPageAttrs) (PageBox, error) {
	if obj, found := pageDict.Find("MediaBox"); found && obj != nil {
		return boxFromArray(ctx, obj)
	}

	if inhPAttrs != nil && inhPAttrs.MediaBox != nil {
		r := inhPAttrs.MediaBox
		return normalizedBox(r.LL.X, r.LL.Y, r.UR.X, r.UR.Y), nil
	}

	obj, err := inheritedAttr(ctx, pageDict, "MediaBox")
	if err != nil {
		return PageBox{}, err
	}
	if obj == nil {
		return PageBox{}, fmt.Errorf("missing MediaBox")
	}
	return boxFromArray(ctx, obj)
}

func boxFromArray(ctx *model.Context, obj types.Object) (PageBox, error) {
	arr, err := ctx.DereferenceArray(obj)
	if err != nil {
		return PageBox{}, err
	}
	if len(arr) != 4 {
		return PageBox{}, fmt.Errorf("malformed MediaBox %v", arr)
	}

	var v [4]float64
	for i, o := range arr {
		if v[i], err = ctx.DereferenceNumber(o); err != nil {
			return PageBox{}, err
		}
	}
	return normalizedBox(v[0], v[1], v[2], v[3]), nil
}

// ensureOwnResources copies inherited resources onto a page that has none of
// its own. Adding a font to an empty /Resources on the page would otherwise
// hide everything inherited from the page tree.
func ensureOwnResources(ctx *model.Context, pageDict types.Dict, inhPAttrs *model.InheritedPageAttrs) error {
	if obj, found := pageDict.Find("Resources"); found && obj != nil {
		return nil
	}

	if inhPAttrs != nil && inhPAttrs.Resources != nil {
		pageDict["Resources"] = inhPAttrs.Resources.Clone()
		return nil
	}

	obj, err := inheritedAttr(ctx, pageDict, "Resources")
	if err != nil || obj == nil {
		return err
	}

	d, err := ctx.DereferenceDict(obj)
	if err != nil {
		return err
	}
	if d != nil {
		pageDict["Resources"] = d.Clone()
	}
	return nil
}

// inheritedAttr looks key up on the ancestors of pageDict, nearest first.
func inheritedAttr(ctx *model.Context, pageDict types.Dict, key string) (types.Object, error) {
	parent, found := pageDict.Find("Parent")
	for depth := 0; found && parent != nil && depth < maxPageTreeDepth; depth++ {
		node, err := ctx.DereferenceDict(parent)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, nil
		}
		if obj, ok := node.Find(key); ok && obj != nil {
			return obj, nil
		}
		parent, found = node.Find("Parent")
	}
	return nil, nil
}

func normalizedBox(x1, y1, x2, y2 float64) PageBox {
	return PageBox{
		Left:   min(x1, x2),
		Bottom: min(y1, y2),
		Right:  max(x1, x2),
		Top:    max(y1, y2),
	}
}

func addFontResource(ctx *model.Context, pageDict types.Dict, fontRef *types.IndirectRef) error {
	resDict, err := subDict(ctx, pageDict, "Resources")
	if err != nil {
		return err
	}

	fontDict, err := subDict(ctx, resDict, "Font")
	if err != nil {
		return err
	}

	fontDict.Update(watermarkFontResKey, *fontRef)
	return nil
}

// subDict returns d[key] dereferenced, creating an empty dict if absent.
func subDict(ctx *model.Context, d types.Dict, key string) (types.Dict, error) {
	obj, found := d.Find(key)
	if found && obj != nil {
		sub, err := ctx.DereferenceDict(obj)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			return sub, nil
		}
	}

	sub := types.NewDict()
	d.Update(key, sub)
	return sub, nil
}

// appendContent keeps the existing page content inside q/Q so the stamp is
// drawn with the default graphics state.
func appendContent(ctx *model.Context, pageDict types.Dict, content []byte) error {
	open, err := newContentStream(ctx, []byte("q\n"))
	if err != nil {
		return err
	}

	stamp, err := newContentStream(ctx, append([]byte("Q\n"), content...))
	if err != nil {
		return err
	}

	contents := types.Array{*open}

	if obj, found := pageDict.Find("Contents"); found && obj != nil {
		deref, err := ctx.Dereference(obj)
		if err != nil {
			return err
		}
		if arr, ok := deref.(types.Array); ok {
			contents = append(contents, arr...)
		} else {
			contents = append(contents, obj)
		}
	}

	contents = append(contents, *stamp)
	pageDict.Update("Contents", contents)
	return nil
}

func newContentStream(ctx *model.Context, buf []byte) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, err
	}

	if err := sd.Encode(); err != nil {
		return nil, err
	}

	return ctx.IndRefForNewObject(*sd)
}
