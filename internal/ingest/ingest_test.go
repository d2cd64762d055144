package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ABFCode/Librium-sub000/internal/database"
	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/parser"
	"github.com/ABFCode/Librium-sub000/internal/storage"
)

func setupTestIngester(t *testing.T) (*Ingester, *gorm.DB, *storage.MemoryStore, func()) {
	dbPath := "./test_ingest_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models...))

	store := storage.NewMemoryStore()
	gateway, err := storage.NewGateway(store, storage.GatewayConfig{SigningSecret: "test-secret"})
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return NewIngester(db, gateway), db, store, cleanup
}

func intPtr(v int) *int { return &v }

// buildResult produces sections*chunksPerSection chunks with book-global offsets.
func buildResult(sections, chunksPerSection int) *parser.Result {
	result := &parser.Result{Blocks: map[int][]parser.Block{}}
	offset := 1000
	for s := 0; s < sections; s++ {
		result.Sections = append(result.Sections, parser.Section{Title: fmt.Sprintf("Chapter %d", s+1), OrderIndex: s})
		for c := 0; c < chunksPerSection; c++ {
			content := fmt.Sprintf("s%02dc%02d ", s, c)
			result.Chunks = append(result.Chunks, parser.Chunk{
				SectionOrderIndex: s,
				ChunkIndex:        c,
				StartOffset:       offset,
				EndOffset:         offset + len(content),
				WordCount:         1,
				Content:           content,
			})
			offset += len(content)
		}
	}
	return result
}

func newRequest(result *parser.Result) Request {
	return Request{
		OwnerID: 7,
		Book:    entities.Book{Title: "Round Trip", Author: "Tester"},
		File:    entities.BookFile{BlobID: "original-blob", FileName: "book.epub", FileSize: 123},
		Parsed:  result,
	}
}

func TestIngest_RoundTrip(t *testing.T) {
	ingester, db, store, cleanup := setupTestIngester(t)
	defer cleanup()

	result := buildResult(3, 40)
	result.Blocks[1] = []parser.Block{{Kind: "paragraph", Inlines: []parser.Inline{{Kind: "text", Text: "hi"}}}}

	stats, err := ingester.Ingest(context.Background(), newRequest(result))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Sections)
	assert.Equal(t, 120, stats.Chunks)
	assert.Zero(t, stats.DroppedChunks)
	assert.Equal(t, 4, stats.Blobs, "three section texts and one block document")
	assert.Equal(t, 4, store.Len())

	var book entities.Book
	require.NoError(t, db.First(&book, stats.BookID).Error)
	assert.Equal(t, uint(7), book.OwnerID)
	assert.Equal(t, 3, book.SectionCount)
	assert.False(t, book.HasCover())

	var sections []entities.Section
	require.NoError(t, db.Where("book_id = ?", book.ID).Order("order_index").Find(&sections).Error)
	require.Len(t, sections, 3)

	for i, section := range sections {
		assert.Equal(t, i, section.OrderIndex)

		var chunks []entities.ContentChunk
		require.NoError(t, db.Where("section_id = ?", section.ID).Order("chunk_index").Find(&chunks).Error)
		require.Len(t, chunks, 40)
		assert.Equal(t, 0, chunks[0].StartOffset, "offsets are section-local")
		for k := 1; k < len(chunks); k++ {
			assert.Equal(t, chunks[k-1].EndOffset, chunks[k].StartOffset, "chunks are contiguous")
		}

		text, _, err := storage.ReadAll(context.Background(), store, section.TextBlobID)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(text), fmt.Sprintf("s%02dc00 ", i)))
		assert.Equal(t, chunks[len(chunks)-1].EndOffset, len(text))
		assert.Equal(t, int64(len(text)), section.TextSize)
	}
	assert.False(t, sections[0].HasBlocks())
	assert.True(t, sections[1].HasBlocks())

	var files []entities.BookFile
	require.NoError(t, db.Where("book_id = ?", book.ID).Find(&files).Error)
	require.Len(t, files, 1)
	assert.Equal(t, "original-blob", files[0].BlobID)

	var progress entities.UserBook
	require.NoError(t, db.Where("user_id = ? AND book_id = ?", 7, book.ID).First(&progress).Error)
	assert.Zero(t, progress.LastChunkIndex)
}

func TestIngest_DropsChunksOfUnknownSections(t *testing.T) {
	ingester, db, _, cleanup := setupTestIngester(t)
	defer cleanup()

	result := buildResult(2, 3)
	result.Chunks = append(result.Chunks, parser.Chunk{SectionOrderIndex: 9, ChunkIndex: 0, EndOffset: 4, Content: "lost"})

	stats, err := ingester.Ingest(context.Background(), newRequest(result))
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Chunks)
	assert.Equal(t, 1, stats.DroppedChunks)

	var count int64
	require.NoError(t, db.Model(&entities.ContentChunk{}).Where("book_id = ?", stats.BookID).Count(&count).Error)
	assert.Equal(t, int64(6), count)
}

func TestIngest_RenumbersSparseChunkIndices(t *testing.T) {
	ingester, db, _, cleanup := setupTestIngester(t)
	defer cleanup()

	result := &parser.Result{
		Sections: []parser.Section{{Title: "Only", OrderIndex: 0}},
		Chunks: []parser.Chunk{
			{SectionOrderIndex: 0, ChunkIndex: 9, StartOffset: 14, EndOffset: 21, Content: "third. "},
			{SectionOrderIndex: 0, ChunkIndex: 0, StartOffset: 0, EndOffset: 7, Content: "first. "},
			{SectionOrderIndex: 0, ChunkIndex: 5, StartOffset: 7, EndOffset: 14, Content: "secnd. "},
		},
	}

	stats, err := ingester.Ingest(context.Background(), newRequest(result))
	require.NoError(t, err)

	var chunks []entities.ContentChunk
	require.NoError(t, db.Where("book_id = ?", stats.BookID).Order("chunk_index").Find(&chunks).Error)
	require.Len(t, chunks, 3)
	for k, chunk := range chunks {
		assert.Equal(t, k, chunk.ChunkIndex)
		assert.Equal(t, k*7, chunk.StartOffset)
	}
	assert.Equal(t, "first. ", chunks[0].Content)
	assert.Equal(t, "third. ", chunks[2].Content)
}

func TestIngest_ResolvesParents(t *testing.T) {
	ingester, db, _, cleanup := setupTestIngester(t)
	defer cleanup()

	result := &parser.Result{Sections: []parser.Section{
		{Title: "Part", OrderIndex: 0},
		{Title: "Chapter", OrderIndex: 1, Depth: 1, ParentOrderIndex: intPtr(0)},
		{Title: "Forward", OrderIndex: 2, ParentOrderIndex: intPtr(3)},
		{Title: "Later", OrderIndex: 3},
		{Title: "Orphan", OrderIndex: 4, ParentOrderIndex: intPtr(42)},
	}}

	stats, err := ingester.Ingest(context.Background(), newRequest(result))
	require.NoError(t, err)

	var sections []entities.Section
	require.NoError(t, db.Where("book_id = ?", stats.BookID).Order("order_index").Find(&sections).Error)
	require.Len(t, sections, 5)

	assert.Nil(t, sections[0].ParentID)
	require.NotNil(t, sections[1].ParentID)
	assert.Equal(t, sections[0].ID, *sections[1].ParentID)
	require.NotNil(t, sections[2].ParentID)
	assert.Equal(t, sections[3].ID, *sections[2].ParentID)
	assert.Nil(t, sections[4].ParentID)
	assert.Empty(t, sections[0].TextBlobID, "sections without chunks have no text blob")
}

func TestIngest_AssetsAndCover(t *testing.T) {
	ingester, db, store, cleanup := setupTestIngester(t)
	defer cleanup()

	result := buildResult(1, 1)
	result.Cover = &parser.Binary{ContentType: "image/png", Data: []byte("cover")}
	result.Images = []parser.Image{
		{Href: "img/a.png", ContentType: "image/png", Data: []byte("a"), Width: 10, Height: 20},
		{Href: "img/a.png", ContentType: "image/png", Data: []byte("duplicate")},
		{Href: "img/b.png", ContentType: "image/png", Data: []byte("bb")},
	}

	stats, err := ingester.Ingest(context.Background(), newRequest(result))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Assets)

	var book entities.Book
	require.NoError(t, db.First(&book, stats.BookID).Error)
	require.True(t, book.HasCover())
	cover, _, err := storage.ReadAll(context.Background(), store, book.CoverBlobID)
	require.NoError(t, err)
	assert.Equal(t, "cover", string(cover))

	var assets []entities.BookAsset
	require.NoError(t, db.Where("book_id = ?", book.ID).Order("href").Find(&assets).Error)
	require.Len(t, assets, 2)
	data, _, err := storage.ReadAll(context.Background(), store, assets[0].BlobID)
	require.NoError(t, err)
	assert.Equal(t, "a", string(data), "the first image with an href wins")
	assert.Equal(t, 10, assets[0].Width)
}

func TestIngest_FinalizeFailureLeavesNothing(t *testing.T) {
	ingester, db, store, cleanup := setupTestIngester(t)
	defer cleanup()

	result := buildResult(2, 5)
	result.Cover = &parser.Binary{ContentType: "image/png", Data: []byte("cover")}
	req := newRequest(result)
	req.Finalize = func(tx *gorm.DB, book *entities.Book) error {
		assert.NotZero(t, book.ID)
		assert.Equal(t, 2, book.SectionCount)
		return errors.New("job moved on")
	}

	_, err := ingester.Ingest(context.Background(), req)
	require.Error(t, err)

	for _, model := range []any{&entities.Book{}, &entities.Section{}, &entities.ContentChunk{}, &entities.BookFile{}, &entities.UserBook{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T rows left behind", model)
	}
	assert.Zero(t, store.Len(), "blobs of a failed ingestion are removed")
}

func TestIngest_FinalizeRunsInTransaction(t *testing.T) {
	ingester, db, _, cleanup := setupTestIngester(t)
	defer cleanup()

	job := &entities.ImportJob{UserID: 7, BlobID: "original-blob", Status: entities.ImportStatusIngesting}
	require.NoError(t, db.Create(job).Error)

	req := newRequest(buildResult(1, 2))
	req.Finalize = func(tx *gorm.DB, book *entities.Book) error {
		return tx.Model(&entities.ImportJob{}).Where("id = ?", job.ID).
			Updates(map[string]any{"status": entities.ImportStatusCompleted, "book_id": book.ID}).Error
	}

	stats, err := ingester.Ingest(context.Background(), req)
	require.NoError(t, err)

	var got entities.ImportJob
	require.NoError(t, db.First(&got, job.ID).Error)
	assert.Equal(t, entities.ImportStatusCompleted, got.Status)
	require.NotNil(t, got.BookID)
	assert.Equal(t, stats.BookID, *got.BookID)
}

func TestPlanSections_FallsBackToRuneLength(t *testing.T) {
	result := &parser.Result{
		Sections: []parser.Section{{Title: "Only", OrderIndex: 0}},
		Chunks: []parser.Chunk{
			{SectionOrderIndex: 0, ChunkIndex: 1, StartOffset: 50, EndOffset: 50, Content: "héllo"},
			{SectionOrderIndex: 0, ChunkIndex: 0, StartOffset: 10, EndOffset: 13, Content: "abc"},
		},
	}

	plan := planSections(result)
	require.Len(t, plan.sections, 1)
	chunks := plan.sections[0].chunks
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 3, chunks[0].EndOffset)
	assert.Equal(t, 3, chunks[1].StartOffset)
	assert.Equal(t, 8, chunks[1].EndOffset, "empty parser span uses the rune count")
	assert.Equal(t, "abchéllo", plan.sections[0].text)
}
