package main

import (
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/labstack/echo/v4"

	oauth "github.com/weshareshare/oauth-pkce-golang"
	"github.com/weshareshare/oauth-pkce-golang/internal/helpers"
)

func (s *WebServer) handleUploadForm(e echo.Context) error {
	return e.HTML(http.StatusOK, `<!doctype html>
<title>Upload</title>
<h1>Upload media</h1>
<form method="post" action="/upload" enctype="multipart/form-data">
  <input type="file" name="media" required>
  <input type="text" name="caption" placeholder="Caption">
  <button type="submit">Upload</button>
</form>
<p><a href="/">Back</a></p>`)
}

func (s *WebServer) handleUploadSubmit(e echo.Context) error {
	as, err := s.authSession(e)
	if err != nil {
		return err
	}

	fh, err := e.FormFile("media")
	if err != nil {
		return e.HTML(http.StatusBadRequest, "<h1>No file provided</h1>")
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploader, err := oauth.NewUploader(oauth.UploaderArgs{
		BaseUrl: s.cfg.BackendUrl,
		Tokens:  as,
	})
	if err != nil {
		return err
	}

	post, err := uploader.Upload(
		e.Request().Context(),
		fh.Filename,
		contentType,
		src,
		fh.Size,
		e.FormValue("caption"),
		helpers.MediaKind(contentType),
	)
	if err != nil {
		stage := "upload"
		switch {
		case errors.Is(err, oauth.ErrUploadURLRequestFailed):
			stage = "requesting an upload url"
		case errors.Is(err, oauth.ErrObjectPutFailed):
			stage = "uploading the file"
		case errors.Is(err, oauth.ErrRecordCreationFailed):
			stage = "creating the post"
		}

		return e.HTML(http.StatusBadGateway, fmt.Sprintf(
			"<h1>Upload failed</h1><p>Something went wrong while %s.</p><p><a href=\"/upload\">Try again</a></p>",
			stage,
		))
	}

	return e.Redirect(302, "/?posted="+html.EscapeString(post.PostID))
}
