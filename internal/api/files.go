// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/jeranaias/dataground-tui/internal/model"
)

// =============================================================================
// FILE UPLOAD
// =============================================================================

// UploadFile uploads a file to attach to the next message. The caller is
// responsible for treating an upload failure as an annotation on the
// message, not a reason to abort the send.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (*model.FileInfo, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	var info model.FileInfo
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/files/upload",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		noRetry:     true,
	}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}
