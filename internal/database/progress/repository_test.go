package progress

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ABFCode/Librium-sub000/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_progress_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.UserBook{}, &entities.Bookmark{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_GetOrCreateUserBook_CreatesZeroRowOnce(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	first, err := repo.GetOrCreateUserBook(1, 10)
	require.NoError(t, err)
	assert.Nil(t, first.LastSectionID)
	assert.Zero(t, first.LastChunkIndex)
	assert.Zero(t, first.LastScrollRatio)

	second, err := repo.GetOrCreateUserBook(1, 10)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, repo.db.Model(&entities.UserBook{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateInitialTx_IgnoresExistingRow(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	sectionID := uint(3)
	_, err := repo.SaveCheckpoint(1, 10, Checkpoint{SectionID: &sectionID, ChunkIndex: 4})
	require.NoError(t, err)

	err = repo.db.Transaction(func(tx *gorm.DB) error {
		return CreateInitialTx(tx, 1, 10)
	})
	require.NoError(t, err)

	row, err := repo.GetOrCreateUserBook(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, row.LastChunkIndex, "existing progress is kept")
}

func TestRepository_SaveCheckpoint_LastWriteWins(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	sectionA, sectionB := uint(1), uint(2)
	_, err := repo.SaveCheckpoint(1, 10, Checkpoint{
		SectionID: &sectionA, SectionIndex: 0, ChunkIndex: 3, ChunkOffset: 12,
		ScrollRatio: 0.25, ScrollTop: 450, ScrollHeight: 2000, ClientHeight: 800,
	})
	require.NoError(t, err)

	row, err := repo.SaveCheckpoint(1, 10, Checkpoint{
		SectionID: &sectionB, SectionIndex: 1, ChunkIndex: 0, ChunkOffset: 0,
		ScrollRatio: 0, ScrollTop: 0, ScrollHeight: 1500, ClientHeight: 800,
	})
	require.NoError(t, err)

	require.NotNil(t, row.LastSectionID)
	assert.Equal(t, sectionB, *row.LastSectionID)
	assert.Equal(t, 1, row.LastSectionIndex)
	assert.Equal(t, 0, row.LastChunkIndex)
	assert.Equal(t, float64(0), row.LastScrollTop)
	assert.Equal(t, float64(1500), row.LastScrollHeight)

	other, err := repo.GetOrCreateUserBook(2, 10)
	require.NoError(t, err)
	assert.Nil(t, other.LastSectionID, "progress is per user")
}

func TestRepository_Bookmarks(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	first := &entities.Bookmark{UserID: 1, BookID: 10, SectionID: 5, ChunkIndex: 2, Label: "first"}
	second := &entities.Bookmark{UserID: 1, BookID: 10, SectionID: 6, ChunkIndex: 0, Label: "second"}
	require.NoError(t, repo.CreateBookmark(first))
	require.NoError(t, repo.CreateBookmark(second))
	require.NoError(t, repo.CreateBookmark(&entities.Bookmark{UserID: 2, BookID: 10, SectionID: 5}))

	bookmarks, err := repo.ListBookmarks(1, 10)
	require.NoError(t, err)
	require.Len(t, bookmarks, 2)
	assert.Equal(t, "first", bookmarks[0].Label)

	err = repo.DeleteBookmark(first.ID, 2)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, repo.DeleteBookmark(first.ID, 1))
	err = repo.DeleteBookmark(first.ID, 1)
	assert.ErrorIs(t, err, ErrBookmarkNotFound)

	bookmarks, err = repo.ListBookmarks(1, 10)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, second.ID, bookmarks[0].ID)
}
