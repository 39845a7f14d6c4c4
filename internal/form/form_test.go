package form

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44,
	0x01, 0x00, 0x3B,
}

type fakeGroups map[string]bool

func (g fakeGroups) GetByID(_ context.Context, id string) (*model.Group, error) {
	if !g[id] {
		return nil, apperror.NotFound("group", id)
	}
	return &model.Group{ID: id}, nil
}

func urlencoded(t *testing.T, values url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/create/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParsePost_Urlencoded(t *testing.T) {
	req := urlencoded(t, url.Values{"text": {"  hello  "}, "group": {"g1"}})

	f, err := ParsePost(req, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "hello", f.Text)
	assert.Equal(t, "g1", f.Group)
	assert.Nil(t, f.Image)

	ok, err := f.Validate(context.Background(), fakeGroups{"g1": true})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, f.GroupID())
	assert.Equal(t, "g1", *f.GroupID())
}

func TestPostForm_Validate(t *testing.T) {
	tests := []struct {
		name  string
		form  PostForm
		field string
		msg   string
	}{
		{"empty text", PostForm{Text: ""}, "text", MsgRequired},
		{"unknown group", PostForm{Text: "hi", Group: "nope"}, "group", MsgInvalidChoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.form.Validate(context.Background(), fakeGroups{})
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, []string{tt.msg}, tt.form.Errors[tt.field])
		})
	}

	f := PostForm{Text: "no group"}
	ok, err := f.Validate(context.Background(), fakeGroups{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, f.GroupID())
}

func TestParsePost_ImageUpload(t *testing.T) {
	req := multipartRequest(t, map[string]string{"text": "with image"}, "small.gif", smallGIF)

	f, err := ParsePost(req, 1<<20)
	require.NoError(t, err)
	require.NotNil(t, f.Image)
	assert.Equal(t, ".gif", f.Image.Ext)
	assert.True(t, f.Errors.Valid())
}

func TestParsePost_RejectsNonImage(t *testing.T) {
	req := multipartRequest(t, map[string]string{"text": "fake"}, "fake.gif", []byte("plain text pretending"))

	f, err := ParsePost(req, 1<<20)
	require.NoError(t, err)
	assert.Nil(t, f.Image)
	assert.Equal(t, []string{MsgInvalidImage}, f.Errors["image"])
}

func TestParsePost_RejectsLargeUpload(t *testing.T) {
	req := multipartRequest(t, map[string]string{"text": "big"}, "small.gif", smallGIF)

	f, err := ParsePost(req, 10)
	require.NoError(t, err)
	assert.Nil(t, f.Image)
	assert.Equal(t, []string{MsgFileTooLarge}, f.Errors["image"])
}

func TestParsePost_OversizedBodyKeepsFields(t *testing.T) {
	huge := bytes.Repeat([]byte("x"), 2<<20)
	req := multipartRequest(t, map[string]string{"text": "keep me", "group": "g1"}, "huge.gif", huge)

	f, err := ParsePost(req, 10)
	require.NoError(t, err)
	assert.Equal(t, "keep me", f.Text)
	assert.Equal(t, "g1", f.Group)
	assert.Nil(t, f.Image)

	ok, err := f.Validate(context.Background(), fakeGroups{"g1": true})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Errors{"image": {MsgFileTooLarge}}, f.Errors)
}

func TestParsePost_OversizedBodyBeforeText(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "huge.gif")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("x"), 2<<20))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("text", "sent too late"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	f, err := ParsePost(req, 10)
	require.NoError(t, err)

	ok, err := f.Validate(context.Background(), fakeGroups{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.Errors.Has("text"))
	assert.Equal(t, []string{MsgFileTooLarge}, f.Errors["image"])
}

func TestParsePost_ClearImage(t *testing.T) {
	req := multipartRequest(t, map[string]string{"text": "x", "image-clear": "on"}, "", nil)

	f, err := ParsePost(req, 1<<20)
	require.NoError(t, err)
	assert.True(t, f.ClearImage)
}

func TestNewPostForm(t *testing.T) {
	g := "g1"
	f := NewPostForm(&model.Post{Text: "old", GroupID: &g})
	assert.Equal(t, "old", f.Text)
	assert.Equal(t, "g1", f.Group)

	empty := NewPostForm(nil)
	assert.Empty(t, empty.Text)
	assert.NotNil(t, empty.Errors)
}

func TestCommentForm(t *testing.T) {
	f, err := ParseComment(urlencoded(t, url.Values{"text": {"   "}}))
	require.NoError(t, err)
	assert.False(t, f.Validate())
	assert.Equal(t, []string{MsgRequired}, f.Errors["text"])

	f, err = ParseComment(urlencoded(t, url.Values{"text": {"nice"}}))
	require.NoError(t, err)
	assert.True(t, f.Validate())
}

func TestSignupForm(t *testing.T) {
	valid := func() url.Values {
		return url.Values{
			"first_name": {"Leo"},
			"last_name":  {"Tolstoy"},
			"username":   {"leo.t"},
			"email":      {"leo@example.com"},
			"password1":  {"war-and-peace"},
			"password2":  {"war-and-peace"},
		}
	}

	f, err := ParseSignup(urlencoded(t, valid()))
	require.NoError(t, err)
	assert.True(t, f.Validate(), "errors: %v", f.Errors)

	tests := []struct {
		name  string
		edit  func(url.Values)
		field string
		msg   string
	}{
		{"missing username", func(v url.Values) { v.Del("username") }, "username", MsgRequired},
		{"bad username", func(v url.Values) { v.Set("username", "leo tolstoy") }, "username", MsgInvalidName},
		{"bad email", func(v url.Values) { v.Set("email", "not-an-email") }, "email", MsgInvalidEmail},
		{"mismatch", func(v url.Values) { v.Set("password2", "something-else") }, "password2", MsgPasswordMatch},
		{"short password", func(v url.Values) { v.Set("password1", "short"); v.Set("password2", "short") }, "password1", "Ensure this value has at least 8 characters."},
		{"long name", func(v url.Values) { v.Set("first_name", strings.Repeat("a", 151)) }, "first_name", "Ensure this value has at most 150 characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := valid()
			tt.edit(v)
			f, err := ParseSignup(urlencoded(t, v))
			require.NoError(t, err)
			assert.False(t, f.Validate())
			assert.Contains(t, f.Errors[tt.field], tt.msg)
		})
	}

	v := valid()
	v.Del("email")
	f, err = ParseSignup(urlencoded(t, v))
	require.NoError(t, err)
	assert.True(t, f.Validate(), "email is optional: %v", f.Errors)
}

func TestLoginForm(t *testing.T) {
	req := urlencoded(t, url.Values{"username": {"leo"}, "password": {"pw"}})
	req.URL.RawQuery = "next=/create/"

	f, err := ParseLogin(req)
	require.NoError(t, err)
	assert.True(t, f.Validate())
	assert.Equal(t, "/create/", f.Next)

	f, err = ParseLogin(urlencoded(t, url.Values{}))
	require.NoError(t, err)
	assert.False(t, f.Validate())
	assert.True(t, f.Errors.Has("username"))
	assert.True(t, f.Errors.Has("password"))
}
