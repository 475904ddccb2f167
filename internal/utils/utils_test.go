package utils_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateObjectKey(t *testing.T) {
	key := utils.GenerateObjectKey("Holiday.JPG")
	assert.Regexp(t, regexp.MustCompile(`^\d+-[0-9a-z]+\.jpg$`), key)

	assert.True(t, strings.HasSuffix(utils.GenerateObjectKey("noext"), ".bin"))
	assert.NotEqual(t, utils.GenerateObjectKey("a.png"), utils.GenerateObjectKey("a.png"))
}

func TestParseEventDate(t *testing.T) {
	date, err := utils.ParseEventDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 2025, date.Year())
	assert.Equal(t, 1, date.Day())

	_, err = utils.ParseEventDate("01/06/2025")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestStatusForError(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("wrap: %w", models.ErrValidation):    http.StatusBadRequest,
		fmt.Errorf("wrap: %w", models.ErrStateConflict): http.StatusConflict,
		models.ErrForbidden:                             http.StatusForbidden,
		models.ErrNotFound:                              http.StatusNotFound,
		models.ErrBucketNotFound:                        http.StatusServiceUnavailable,
		fmt.Errorf("boom"):                              http.StatusInternalServerError,
	}
	for err, want := range cases {
		status, _ := utils.StatusForError(err)
		assert.Equal(t, want, status, err.Error())
	}
}

func TestValidateCaptionBound(t *testing.T) {
	req := models.SubmitImageRequest{
		ImageURL: "https://example.com/a.jpg",
		Caption:  strings.Repeat("x", models.MaxCaptionLength),
	}
	assert.NoError(t, utils.Validate(req))

	req.Caption = strings.Repeat("x", models.MaxCaptionLength+1)
	assert.ErrorIs(t, utils.Validate(req), models.ErrValidation)

	req.Caption = ""
	req.ImageURL = "not a url"
	assert.ErrorIs(t, utils.Validate(req), models.ErrValidation)
}

func TestValidateRequiresHTTPImageURLs(t *testing.T) {
	for _, bad := range []string{"httpx://example.com/a.jpg", "javascript:alert(1)", "ftp://example.com/a.jpg", "https://"} {
		img := models.SubmitImageRequest{ImageURL: bad}
		assert.ErrorIs(t, utils.Validate(img), models.ErrValidation, bad)

		event := models.EventRequest{Title: "Open day", Date: "2026-05-01", Location: "Hall A", ImageURL: bad}
		assert.ErrorIs(t, utils.Validate(event), models.ErrValidation, bad)
	}

	event := models.EventRequest{Title: "Open day", Date: "2026-05-01", Location: "Hall A", ImageURL: "http://cdn.example.com/cover.png"}
	assert.NoError(t, utils.Validate(event))
}

func TestValidateIDs(t *testing.T) {
	id := utils.NewID()
	assert.NoError(t, utils.ValidateID(id))
	assert.NoError(t, utils.ValidatePathID(id))

	for _, bad := range []string{"", "abc", "img-1", id + "0", "' OR 1=1 --"} {
		assert.ErrorIs(t, utils.ValidateID(bad), models.ErrValidation, bad)
		assert.ErrorIs(t, utils.ValidatePathID(bad), models.ErrNotFound, bad)
	}
}

func TestReadUploads(t *testing.T) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, name := range []string{"a.png", "b.png"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("data-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images/batch", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	uploads, err := utils.ReadUploads(req.MultipartForm, "files", 1<<20)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "a.png", uploads[0].Filename)
	assert.Equal(t, []byte("data-b.png"), uploads[1].Data)

	_, err = utils.ReadUploads(req.MultipartForm, "files", 3)
	assert.ErrorIs(t, err, models.ErrValidation)

	none, err := utils.ReadUploads(req.MultipartForm, "other", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
