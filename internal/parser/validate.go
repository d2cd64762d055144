package parser

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ABFCode/Librium-sub000/internal/logging"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field paths using the JSON names the parser sends.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// toResult validates a decoded response and converts it into a Result.
func toResult(resp *response) (*Result, error) {
	if err := validate.Struct(resp); err != nil {
		return nil, invalid(err, "Parser returned an invalid response: %s", describeValidation(err))
	}

	sections, err := convertSections(resp.Sections)
	if err != nil {
		return nil, invalid(err, "Parser returned an invalid response: %s", err)
	}
	chunks, err := convertChunks(resp.Chunks, len(sections))
	if err != nil {
		return nil, invalid(err, "Parser returned an invalid response: %s", err)
	}

	result := &Result{
		FileName: resp.FileName,
		Metadata: convertMetadata(resp.Metadata),
		Sections: sections,
		Chunks:   chunks,
		Blocks:   make(map[int][]Block, len(resp.SectionBlocks)),
		Warnings: resp.Warnings,
	}
	for _, sb := range resp.SectionBlocks {
		result.Blocks[*sb.SectionOrderIndex] = sb.Blocks
	}

	log := logging.Named("parser")
	if resp.Cover != nil {
		data, err := base64.StdEncoding.DecodeString(*resp.Cover.Data)
		if err != nil {
			log.Warn("dropping undecodable cover", zap.Error(err))
		} else if len(data) > 0 {
			result.Cover = &Binary{ContentType: resp.Cover.ContentType, Data: data}
		}
	}
	for _, img := range resp.Images {
		data, err := base64.StdEncoding.DecodeString(*img.Data)
		if err != nil {
			log.Warn("dropping undecodable image", zap.String("href", img.Href), zap.Error(err))
			continue
		}
		result.Images = append(result.Images, Image{
			Href:        img.Href,
			ContentType: img.ContentType,
			Data:        data,
			Width:       img.Width,
			Height:      img.Height,
		})
	}

	return result, nil
}

// convertSections requires order indices to be exactly 0..n-1.
func convertSections(in []sectionPayload) ([]Section, error) {
	out := make([]Section, len(in))
	seen := make([]bool, len(in))
	for i, s := range in {
		idx := *s.OrderIndex
		if idx >= len(in) {
			return nil, fmt.Errorf("sections[%d].orderIndex %d is out of range for %d sections", i, idx, len(in))
		}
		if seen[idx] {
			return nil, fmt.Errorf("sections[%d].orderIndex %d is duplicated", i, idx)
		}
		seen[idx] = true
		out[i] = Section{
			Title:            *s.Title,
			OrderIndex:       idx,
			Depth:            *s.Depth,
			ParentOrderIndex: s.ParentOrderIndex,
			Href:             s.Href,
			Anchor:           s.Anchor,
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

// convertChunks checks offsets and per-section chunk index uniqueness.
// Chunks pointing at unknown sections pass through; ingestion drops them.
func convertChunks(in []chunkPayload, sectionCount int) ([]Chunk, error) {
	type key struct{ section, chunk int }
	seen := make(map[key]struct{}, len(in))
	out := make([]Chunk, len(in))
	for i, c := range in {
		ch := Chunk{
			SectionOrderIndex: *c.SectionOrderIndex,
			ChunkIndex:        *c.ChunkIndex,
			StartOffset:       *c.StartOffset,
			EndOffset:         *c.EndOffset,
			WordCount:         *c.WordCount,
			Content:           *c.Content,
		}
		if ch.EndOffset < ch.StartOffset {
			return nil, fmt.Errorf("chunks[%d] ends before it starts", i)
		}
		if ch.SectionOrderIndex < sectionCount {
			k := key{ch.SectionOrderIndex, ch.ChunkIndex}
			if _, dup := seen[k]; dup {
				return nil, fmt.Errorf("chunks[%d].chunkIndex %d is duplicated in section %d", i, ch.ChunkIndex, ch.SectionOrderIndex)
			}
			seen[k] = struct{}{}
		}
		out[i] = ch
	}
	return out, nil
}

func convertMetadata(in *metadataPayload) Metadata {
	if in == nil {
		return Metadata{}
	}
	md := Metadata{
		Title:       strings.TrimSpace(in.Title),
		Language:    in.Language,
		Publisher:   in.Publisher,
		PublishedAt: in.PublishedAt,
		Series:      in.Series,
		SeriesIndex: in.SeriesIndex,
		Subjects:    in.Subjects,
	}
	for _, a := range in.Authors {
		if a = strings.TrimSpace(a); a != "" {
			md.Authors = append(md.Authors, a)
		}
	}
	for _, id := range in.Identifiers {
		md.Identifiers = append(md.Identifiers, Identifier{ID: id.ID, Scheme: id.Scheme, Value: *id.Value, Type: id.Type})
	}
	return md
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "response.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fe.Param()
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}
