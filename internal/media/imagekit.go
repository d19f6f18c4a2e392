package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vibelink/messaging/internal/domain"
)

// imageTransform normalizes inline images for chat rendering.
const imageTransform = "tr=w-1280,q-auto,f-webp"

// ImageKit uploads through the ImageKit REST API using private-key basic
// auth.
type ImageKit struct {
	privateKey  string
	uploadURL   string
	urlEndpoint string
	httpClient  *http.Client
}

func NewImageKit(privateKey, uploadURL, urlEndpoint string) *ImageKit {
	return &ImageKit{
		privateKey:  privateKey,
		uploadURL:   uploadURL,
		urlEndpoint: strings.TrimRight(urlEndpoint, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	URL      string `json:"url"`
	FilePath string `json:"filePath"`
}

func (ik *ImageKit) UploadImage(ctx context.Context, fileName string, data []byte) (string, error) {
	resp, err := ik.upload(ctx, fileName, data)
	if err != nil {
		return "", err
	}
	if ik.urlEndpoint != "" && resp.FilePath != "" {
		return fmt.Sprintf("%s%s?%s", ik.urlEndpoint, resp.FilePath, imageTransform), nil
	}
	return resp.URL + "?" + imageTransform, nil
}

func (ik *ImageKit) UploadFile(ctx context.Context, fileName, _ string, data []byte) (string, error) {
	resp, err := ik.upload(ctx, fileName, data)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (ik *ImageKit) upload(ctx context.Context, fileName string, data []byte) (*uploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, uploadErr(err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, uploadErr(err)
	}
	if err := mw.WriteField("fileName", fileName); err != nil {
		return nil, uploadErr(err)
	}
	if err := mw.Close(); err != nil {
		return nil, uploadErr(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ik.uploadURL, &body)
	if err != nil {
		return nil, uploadErr(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(ik.privateKey, "")

	resp, err := ik.httpClient.Do(req)
	if err != nil {
		return nil, uploadErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, uploadErr(fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, uploadErr(err)
	}
	if out.URL == "" && out.FilePath == "" {
		return nil, uploadErr(fmt.Errorf("empty upload response"))
	}
	return &out, nil
}

func uploadErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
}
