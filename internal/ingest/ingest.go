// Package ingest turns a validated parser result into rows and blobs.
//
// Rows are written in a single transaction: book, original file, the owner's
// initial progress row, sections, chunks, assets and the final section count.
// The caller's Finalize hook runs last inside that transaction, so whatever it
// records (the import pipeline marks its job completed) commits or rolls back
// with the content. Blobs cannot join the transaction; they are written first
// and deleted again if the transaction fails.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ABFCode/Librium-sub000/internal/database/progress"
	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/logging"
	"github.com/ABFCode/Librium-sub000/internal/parser"
	"github.com/ABFCode/Librium-sub000/internal/storage"
)

const (
	chunkBatchSize = 500

	contentTypeText   = "text/plain; charset=utf-8"
	contentTypeBlocks = "application/json"
)

// BlobWriter is the part of the storage gateway ingestion needs.
type BlobWriter interface {
	Put(ctx context.Context, content io.Reader, meta storage.Meta) (storage.BlobInfo, error)
	DeleteMany(ctx context.Context, ids ...string) error
}

// FinalizeFunc runs inside the ingestion transaction after all content rows exist.
type FinalizeFunc func(tx *gorm.DB, book *entities.Book) error

// Request describes one book to ingest.
type Request struct {
	OwnerID  uint
	Book     entities.Book // metadata; ID, owner, cover and counts are filled in
	File     entities.BookFile
	Parsed   *parser.Result
	Finalize FinalizeFunc
}

// Stats reports what was written.
type Stats struct {
	BookID        uint
	Sections      int
	Chunks        int
	DroppedChunks int
	Assets        int
	Blobs         int
}

// Ingester writes parsed books.
type Ingester struct {
	db    *gorm.DB
	blobs BlobWriter
	log   *zap.Logger
}

// NewIngester creates an ingester over the database and blob store.
func NewIngester(db *gorm.DB, blobs BlobWriter) *Ingester {
	return &Ingester{db: db, blobs: blobs, log: logging.Named("ingest")}
}

// Ingest writes the book. On error nothing it wrote remains.
func (i *Ingester) Ingest(ctx context.Context, req Request) (*Stats, error) {
	if req.Parsed == nil {
		return nil, errors.New("ingest: no parser result")
	}

	plan := planSections(req.Parsed)
	stats := &Stats{Sections: len(plan.sections), DroppedChunks: plan.dropped}
	if plan.dropped > 0 {
		i.log.Warn("dropping chunks of unknown sections", zap.Int("count", plan.dropped))
	}

	var written []string
	rollbackBlobs := func() {
		if len(written) == 0 {
			return
		}
		// The request context may already be cancelled; cleanup must still run.
		if err := i.blobs.DeleteMany(context.WithoutCancel(ctx), written...); err != nil {
			i.log.Error("failed to remove blobs of failed ingestion", zap.Strings("blob_ids", written), zap.Error(err))
		}
	}
	put := func(data []byte, contentType string) (string, error) {
		info, err := i.blobs.Put(ctx, bytes.NewReader(data), storage.Meta{ContentType: contentType, OwnerID: req.OwnerID})
		if err != nil {
			return "", err
		}
		written = append(written, info.ID)
		return info.ID, nil
	}

	for idx := range plan.sections {
		ps := &plan.sections[idx]
		if ps.text != "" {
			id, err := put([]byte(ps.text), contentTypeText)
			if err != nil {
				rollbackBlobs()
				return nil, fmt.Errorf("failed to store text of section %d: %w", ps.source.OrderIndex, err)
			}
			ps.row.TextBlobID, ps.row.TextSize = id, int64(len(ps.text))
		}
		if blocks := req.Parsed.Blocks[ps.source.OrderIndex]; len(blocks) > 0 {
			data, err := json.Marshal(blocks)
			if err == nil {
				var id string
				id, err = put(data, contentTypeBlocks)
				ps.row.ContentBlobID, ps.row.ContentSize = id, int64(len(data))
			}
			if err != nil {
				rollbackBlobs()
				return nil, fmt.Errorf("failed to store blocks of section %d: %w", ps.source.OrderIndex, err)
			}
		}
	}

	assets, err := i.storeAssets(req.Parsed.Images, put)
	if err != nil {
		rollbackBlobs()
		return nil, err
	}
	stats.Assets = len(assets)

	book := req.Book
	book.ID = 0
	book.OwnerID = req.OwnerID
	book.SectionCount = 0
	if cover := req.Parsed.Cover; cover != nil {
		// A book without its cover is still a book.
		if id, err := put(cover.Data, cover.ContentType); err != nil {
			i.log.Warn("failed to store cover", zap.Error(err))
		} else {
			book.CoverBlobID, book.CoverContentType = id, cover.ContentType
		}
	}

	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&book).Error; err != nil {
			return fmt.Errorf("failed to create book: %w", err)
		}

		file := req.File
		file.ID, file.BookID = 0, book.ID
		if err := tx.Create(&file).Error; err != nil {
			return fmt.Errorf("failed to attach original file: %w", err)
		}
		if err := progress.CreateInitialTx(tx, req.OwnerID, book.ID); err != nil {
			return fmt.Errorf("failed to link progress: %w", err)
		}

		chunkCount, err := insertContent(tx, book.ID, plan.sections)
		if err != nil {
			return err
		}
		stats.Chunks = chunkCount

		for k := range assets {
			assets[k].BookID = book.ID
		}
		if len(assets) > 0 {
			if err := tx.CreateInBatches(assets, chunkBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert assets: %w", err)
			}
		}

		book.SectionCount = len(plan.sections)
		if err := tx.Model(&book).Update("section_count", book.SectionCount).Error; err != nil {
			return fmt.Errorf("failed to update section count: %w", err)
		}

		if req.Finalize != nil {
			return req.Finalize(tx, &book)
		}
		return nil
	})
	if err != nil {
		rollbackBlobs()
		return nil, err
	}

	stats.BookID = book.ID
	stats.Blobs = len(written)
	i.log.Info("book ingested",
		zap.Uint("book_id", book.ID),
		zap.Int("sections", stats.Sections),
		zap.Int("chunks", stats.Chunks),
		zap.Int("dropped_chunks", stats.DroppedChunks),
		zap.Int("assets", stats.Assets))
	return stats, nil
}

// insertContent writes sections in order, then their chunks in batches.
func insertContent(tx *gorm.DB, bookID uint, sections []plannedSection) (int, error) {
	idByOrder := make(map[int]uint, len(sections))
	var forwardParents []plannedSection

	for k := range sections {
		ps := &sections[k]
		ps.row.BookID = bookID
		if p := ps.source.ParentOrderIndex; p != nil {
			if parentID, ok := idByOrder[*p]; ok {
				ps.row.ParentID = &parentID
			} else {
				forwardParents = append(forwardParents, *ps)
			}
		}
		if err := tx.Create(&ps.row).Error; err != nil {
			return 0, fmt.Errorf("failed to insert section %d: %w", ps.source.OrderIndex, err)
		}
		idByOrder[ps.source.OrderIndex] = ps.row.ID
	}

	// Parents that appear later in reading order. Unknown parents leave the
	// section at the top level.
	for _, ps := range forwardParents {
		parentID, ok := idByOrder[*ps.source.ParentOrderIndex]
		if !ok || parentID == idByOrder[ps.source.OrderIndex] {
			continue
		}
		if err := tx.Model(&entities.Section{}).
			Where("id = ?", idByOrder[ps.source.OrderIndex]).
			Update("parent_id", parentID).Error; err != nil {
			return 0, fmt.Errorf("failed to link section %d to its parent: %w", ps.source.OrderIndex, err)
		}
	}

	var chunks []entities.ContentChunk
	for _, ps := range sections {
		sectionID := idByOrder[ps.source.OrderIndex]
		for _, c := range ps.chunks {
			c.BookID = bookID
			c.SectionID = sectionID
			chunks = append(chunks, c)
		}
	}
	if len(chunks) > 0 {
		if err := tx.CreateInBatches(chunks, chunkBatchSize).Error; err != nil {
			return 0, fmt.Errorf("failed to insert chunks: %w", err)
		}
	}
	return len(chunks), nil
}

// storeAssets writes one blob per distinct href; the first image wins.
func (i *Ingester) storeAssets(images []parser.Image, put func([]byte, string) (string, error)) ([]entities.BookAsset, error) {
	seen := make(map[string]struct{}, len(images))
	var assets []entities.BookAsset
	for _, img := range images {
		if _, dup := seen[img.Href]; dup {
			continue
		}
		seen[img.Href] = struct{}{}
		id, err := put(img.Data, img.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store asset %q: %w", img.Href, err)
		}
		assets = append(assets, entities.BookAsset{
			Href:        img.Href,
			BlobID:      id,
			ContentType: img.ContentType,
			ByteSize:    int64(len(img.Data)),
			Width:       img.Width,
			Height:      img.Height,
		})
	}
	return assets, nil
}

type plannedSection struct {
	source parser.Section
	row    entities.Section
	chunks []entities.ContentChunk
	text   string
}

type sectionPlan struct {
	sections []plannedSection
	dropped  int
}

// planSections groups chunks under their sections and rebases chunk offsets
// so they index the section's own text: the first chunk starts at 0 and each
// chunk starts where the previous one ended.
func planSections(result *parser.Result) sectionPlan {
	plan := sectionPlan{sections: make([]plannedSection, len(result.Sections))}
	posByOrder := make(map[int]int, len(result.Sections))
	for k, s := range result.Sections {
		plan.sections[k] = plannedSection{
			source: s,
			row: entities.Section{
				Title:      s.Title,
				Href:       s.Href,
				Anchor:     s.Anchor,
				OrderIndex: s.OrderIndex,
				Depth:      s.Depth,
			},
		}
		posByOrder[s.OrderIndex] = k
	}

	grouped := make(map[int][]parser.Chunk, len(result.Sections))
	for _, c := range result.Chunks {
		if _, ok := posByOrder[c.SectionOrderIndex]; !ok {
			plan.dropped++
			continue
		}
		grouped[c.SectionOrderIndex] = append(grouped[c.SectionOrderIndex], c)
	}

	for order, chunks := range grouped {
		sort.Slice(chunks, func(a, b int) bool { return chunks[a].ChunkIndex < chunks[b].ChunkIndex })
		// Stored chunk indices are dense from 0 in parser order.

		ps := &plan.sections[posByOrder[order]]
		var text bytes.Buffer
		offset := 0
		for k, c := range chunks {
			length := c.EndOffset - c.StartOffset
			if length <= 0 {
				length = utf8.RuneCountInString(c.Content)
			}
			ps.chunks = append(ps.chunks, entities.ContentChunk{
				ChunkIndex:  k,
				StartOffset: offset,
				EndOffset:   offset + length,
				WordCount:   c.WordCount,
				Content:     c.Content,
			})
			offset += length
			text.WriteString(c.Content)
		}
		ps.text = text.String()
	}
	return plan
}
