package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrUploadURLRequestFailed = errors.New("signed upload url request failed")
	ErrObjectPutFailed        = errors.New("object upload failed")
	ErrRecordCreationFailed   = errors.New("post record creation failed")
)

// StageError names the upload stage that failed and carries the
// backend's response. It unwraps to one of the stage sentinels above.
type StageError struct {
	stage      error
	StatusCode int
	Body       string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.stage, e.StatusCode, e.Body)
}

func (e *StageError) Unwrap() error {
	return e.stage
}

// TokenSource supplies a bearer credential, or "" when none is
// available. *Session satisfies it.
type TokenSource interface {
	GetAuthToken(ctx context.Context) (string, error)
}

// UploadTarget is the backend's answer to a signed-url request: a
// time-limited presigned URL plus the object key the backend chose.
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	S3Key     string `json:"s3Key"`
}

// NewPostInput is the metadata record created after a successful upload.
type NewPostInput struct {
	S3Key     string `json:"s3Key"`
	Caption   string `json:"caption"`
	MediaType string `json:"mediaType"`
}

// Post is a feed entry. Records created client-side carry only the
// fields the client knows; the rest is reconciled from the server
// response.
type Post struct {
	PostID       string `json:"postId"`
	Author       string `json:"author,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	Caption      string `json:"caption,omitempty"`
	MediaType    string `json:"mediaType,omitempty"`
	MediaURL     string `json:"mediaUrl,omitempty"`
	LikeCount    int    `json:"likeCount,omitempty"`
	CommentCount int    `json:"commentCount,omitempty"`
}

// Uploader sequences a media upload: request a presigned target, PUT
// the bytes to object storage, then create the metadata record. Steps
// run strictly in order and the first failure aborts the rest. There is
// no compensation: an object uploaded before a failed record creation
// is left orphaned.
type Uploader struct {
	h       *http.Client
	baseUrl string
	tokens  TokenSource
}

type UploaderArgs struct {
	H       *http.Client
	BaseUrl string
	Tokens  TokenSource
}

func NewUploader(args UploaderArgs) (*Uploader, error) {
	if args.BaseUrl == "" {
		return nil, fmt.Errorf("no backend base url provided")
	}

	if args.Tokens == nil {
		return nil, fmt.Errorf("no token source provided")
	}

	if args.H == nil {
		args.H = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Uploader{
		h:       args.H,
		baseUrl: strings.TrimSuffix(args.BaseUrl, "/"),
		tokens:  args.Tokens,
	}, nil
}

func (u *Uploader) bearer(ctx context.Context, stage error) (string, error) {
	tok, err := u.tokens.GetAuthToken(ctx)
	if err != nil {
		return "", err
	}

	if tok == "" {
		return "", fmt.Errorf("%w: no usable credential", stage)
	}

	return tok, nil
}

// RequestUploadTarget asks the backend for a presigned upload URL.
func (u *Uploader) RequestUploadTarget(ctx context.Context, filename, contentType string) (*UploadTarget, error) {
	tok, err := u.bearer(ctx, ErrUploadURLRequestFailed)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"filename":    {filename},
		"contentType": {contentType},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.baseUrl+"/signed-url?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := u.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadURLRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, stageError(ErrUploadURLRequestFailed, resp)
	}

	var target UploadTarget
	if err := json.NewDecoder(resp.Body).Decode(&target); err != nil {
		return nil, fmt.Errorf("%w: could not decode response: %v", ErrUploadURLRequestFailed, err)
	}

	if target.UploadURL == "" {
		return nil, fmt.Errorf("%w: response contained no upload url", ErrUploadURLRequestFailed)
	}

	return &target, nil
}

// PutObject streams the raw file bytes to the presigned URL. The URL is
// pre-authorized, so no bearer header is sent; the Content-Type must
// match the one the URL was signed for.
func (u *Uploader) PutObject(ctx context.Context, uploadUrl string, body io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, "PUT", uploadUrl, body)
	if err != nil {
		return err
	}

	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := u.h.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrObjectPutFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return stageError(ErrObjectPutFailed, resp)
	}

	io.Copy(io.Discard, resp.Body)

	return nil
}

// CreateRecord creates the post metadata record for an uploaded object.
func (u *Uploader) CreateRecord(ctx context.Context, input NewPostInput) (*Post, error) {
	tok, err := u.bearer(ctx, ErrRecordCreationFailed)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", u.baseUrl+"/posts", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCreationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, stageError(ErrRecordCreationFailed, resp)
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return nil, fmt.Errorf("%w: could not decode response: %v", ErrRecordCreationFailed, err)
	}

	post.Caption = input.Caption
	post.MediaType = input.MediaType

	return &post, nil
}

// Upload runs the full three-step sequence.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64, caption, mediaType string) (*Post, error) {
	target, err := u.RequestUploadTarget(ctx, filename, contentType)
	if err != nil {
		return nil, err
	}

	if err := u.PutObject(ctx, target.UploadURL, body, size, contentType); err != nil {
		return nil, err
	}

	return u.CreateRecord(ctx, NewPostInput{
		S3Key:     target.S3Key,
		Caption:   caption,
		MediaType: mediaType,
	})
}

func stageError(stage error, resp *http.Response) *StageError {
	b, _ := io.ReadAll(resp.Body)
	return &StageError{
		stage:      stage,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(b)),
	}
}
