package users

import (
	"fmt"
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
	dbPath := "./test_users_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_EnsureIdentity_CreatesOnce(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	id := Identity{Provider: "https://idp.example", ExternalID: "user-1", Email: "a@example.com", Name: "Ann"}

	first, err := repo.EnsureIdentity(id)
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Equal(t, "a@example.com", first.Email)

	second, err := repo.EnsureIdentity(id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestRepository_EnsureIdentity_RefreshesProfile(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.EnsureIdentity(Identity{Provider: "p", ExternalID: "x", Name: "Old"})
	require.NoError(t, err)

	user, err := repo.EnsureIdentity(Identity{Provider: "p", ExternalID: "x", Name: "New", Email: "new@example.com"})
	require.NoError(t, err)

	stored, err := repo.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", stored.Name)
	assert.Equal(t, "new@example.com", stored.Email)
}

func TestRepository_EnsureIdentity_SeparatesProviders(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	a, err := repo.EnsureIdentity(Identity{Provider: "a", ExternalID: "same"})
	require.NoError(t, err)
	b, err := repo.EnsureIdentity(Identity{Provider: "b", ExternalID: "same"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestRepository_EnsureIdentity_RequiresKey(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.EnsureIdentity(Identity{Provider: "a"})
	assert.Error(t, err)
}

func TestRepository_EnsureLocalDevUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.EnsureLocalDevUser()
	require.NoError(t, err)
	assert.Equal(t, entities.AuthProviderLocal, user.AuthProvider)
	assert.Equal(t, entities.LocalDevExternalID, user.ExternalID)
	assert.Equal(t, entities.LocalDevName, user.Name)
}

type recordingWriter struct {
	lines []string
}

func (w *recordingWriter) Printf(format string, args ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func TestRepository_EnsureIdentity_FirstSightLogsNothing(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	writer := &recordingWriter{}
	repo.db = repo.db.Session(&gorm.Session{Logger: logger.New(writer, logger.Config{LogLevel: logger.Warn})})

	_, err := repo.EnsureLocalDevUser()
	require.NoError(t, err)
	_, err = repo.EnsureLocalDevUser()
	require.NoError(t, err)

	assert.Empty(t, writer.lines)
}

func TestRepository_GetUserByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetUserByID(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
