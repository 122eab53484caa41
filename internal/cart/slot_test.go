package cart

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieSlotReadsRequestCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cart", Value: "{%225%22:2%2C%229%22:1}"})

	s := NewStore(NewCookieSlot(httptest.NewRecorder(), req, CookieOptions{}))
	assert.Equal(t, Mapping{5: 2, 9: 1}, s.Load())
	assert.Equal(t, 3, s.Count())
}

func TestCookieSlotLastWriteWins(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	http.SetCookie(rr, &http.Cookie{Name: "session", Value: "x"})

	s := NewStore(NewCookieSlot(rr, req, CookieOptions{Secure: true}), WithClock(func() time.Time { return now }))
	_, err := s.Add(5)
	require.NoError(t, err)
	_, err = s.Add(5)
	require.NoError(t, err)
	_, err = s.Add(9)
	require.NoError(t, err)

	var carts []*http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "cart" {
			carts = append(carts, c)
		}
	}
	require.Len(t, carts, 1, "one cart cookie per response")
	assert.Len(t, rr.Result().Cookies(), 2, "other cookies are kept")

	c := carts[0]
	assert.Equal(t, "{%225%22:2%2C%229%22:1}", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.Expires.Equal(now.Add(7*24*time.Hour)))
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.True(t, c.Secure)
	assert.False(t, c.HttpOnly)
}

func TestFileSlotSharedBetweenProcesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jar", "cart.json")

	a := NewStore(NewFileSlot(path, ""))
	b := NewStore(NewFileSlot(path, ""))

	assert.Empty(t, b.Load())

	_, err := a.Add(3)
	require.NoError(t, err)
	_, err = b.Add(3)
	require.NoError(t, err)

	assert.Equal(t, Mapping{3: 2}, a.Load())
}

func TestFileSlotExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	slot := NewFileSlot(path, "")

	require.NoError(t, slot.Write("{}", time.Now().Add(-time.Minute)))
	_, ok := slot.Read()
	assert.False(t, ok)

	require.NoError(t, slot.Write("{%221%22:1}", time.Now().Add(time.Minute)))
	v, ok := slot.Read()
	assert.True(t, ok)
	assert.Equal(t, "{%221%22:1}", v)
}

func TestFileSlotCorruptJarIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	s := NewStore(NewFileSlot(path, ""))
	assert.Empty(t, s.Load())

	_, err := s.Add(4)
	require.NoError(t, err)
	assert.Equal(t, Mapping{4: 1}, s.Load())
}
