package imagestore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type putCall struct {
	key         string
	contentType string
	size        int
}

type stubStore struct {
	calls []putCall
	err   error
}

func (s *stubStore) Put(_ context.Context, key, contentType string, data []byte) error {
	s.calls = append(s.calls, putCall{key: key, contentType: contentType, size: len(data)})
	return s.err
}

func newTestUploader(store ObjectStore) *Uploader {
	u := NewUploader(store, "https://storage.googleapis.com/shop-images/", nil)
	u.newID = func() string { return "0a1b" }
	return u
}

func TestObjectKey(t *testing.T) {
	cases := map[string]string{
		"FaT LAZY cAT.jpeg": "fat-lazy-cat-0a1b.jpeg",
		" cat ":             "cat-0a1b",
		"fat.lazy.cat.png":  "fat.lazy.cat-0a1b.png",
		".cat":              "-0a1b.cat",
		"cat.":              "cat-0a1b.",
		"":                  "0a1b",
	}
	for name, want := range cases {
		require.Equal(t, want, ObjectKey(name, "0a1b"), name)
	}
}

func TestUploader_Upload(t *testing.T) {
	store := &stubStore{}
	url, err := newTestUploader(store).Upload(context.Background(), domain.Image{
		Name:        "Good Book.png",
		ContentType: "image/png",
		Data:        []byte{1, 2, 3},
	})
	require.NoError(t, err)
	require.Equal(t, "https://storage.googleapis.com/shop-images/good-book-0a1b.png", url)
	require.Equal(t, []putCall{{key: "good-book-0a1b.png", contentType: "image/png", size: 3}}, store.calls)
}

func TestUploader_RejectsInvalidImages(t *testing.T) {
	store := &stubStore{}
	uploader := newTestUploader(store)

	_, err := uploader.Upload(context.Background(), domain.Image{Name: "a.png", ContentType: "image/png"})
	require.ErrorIs(t, err, domain.ErrImageInvalid)

	_, err = uploader.Upload(context.Background(), domain.Image{Name: "a.txt", ContentType: "text/plain", Data: []byte("x")})
	require.ErrorIs(t, err, domain.ErrImageInvalid)

	require.Empty(t, store.calls)
}

func TestUploader_StoreError(t *testing.T) {
	storeErr := errors.New("bucket unavailable")
	_, err := newTestUploader(&stubStore{err: storeErr}).Upload(context.Background(), domain.Image{
		Name:        "a.png",
		ContentType: "image/png",
		Data:        []byte{1},
	})
	require.ErrorIs(t, err, storeErr)
	require.NotErrorIs(t, err, domain.ErrImageInvalid)
}
