package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/ABFCode/Librium-sub000/internal/auth"
	"github.com/ABFCode/Librium-sub000/internal/entities"
)

type stubUserLookup map[uint]*entities.User

func (s stubUserLookup) GetUserByID(id uint) (*entities.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestResolveOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lookup := stubUserLookup{2: {ID: 2}}

	tests := []struct {
		name          string
		explicitOwner bool
		authType      auth.AuthType
		explicit      uint
		want          uint
		wantCode      int
	}{
		{"no explicit owner", false, auth.AuthTypeBearer, 0, 1, 0},
		{"explicit owner is the viewer", false, auth.AuthTypeBearer, 1, 1, 0},
		{"local caller names another user", true, auth.AuthTypeLocal, 2, 2, 0},
		{"bearer caller cannot name another user", true, auth.AuthTypeBearer, 2, 0, http.StatusForbidden},
		{"disabled explicit owner", false, auth.AuthTypeLocal, 2, 0, http.StatusForbidden},
		{"unknown user", true, auth.AuthTypeLocal, 9, 0, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/api/imports", nil)
			c.Set(auth.ContextKeyUserID, uint(1))
			c.Set(auth.ContextKeyAuthType, tt.authType)

			ic := NewImportsController(nil, lookup, tt.explicitOwner)
			got, ok := ic.resolveOwner(c, tt.explicit)

			assert.Equal(t, tt.wantCode == 0, ok)
			assert.Equal(t, tt.want, got)
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, w.Code)
			}
		})
	}
}
