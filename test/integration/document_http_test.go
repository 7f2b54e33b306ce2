package integration

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cibilbank/backend/internal/auth"
)

func multipartUpload(t *testing.T, fields map[string]string, fileName string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func attachDocument(t *testing.T, env *testEnv, cookie *http.Cookie, appID string, fields map[string]string, fileName string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, fields, fileName, payload)
	req := httptest.NewRequest(http.MethodPatch, "/v1/applications/"+appID+"/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestAttachDocumentMultipart(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.accessCookie(t, "u-1", auth.RoleApplicant)
	appID := createApplication(t, env, cookie, map[string]any{"name": "Asha"})

	w := attachDocument(t, env, cookie, appID,
		map[string]string{"doc_type": "PAN_CARD", "doc_no": "ABCDE1234F"},
		"pan.pdf", []byte("pdf-bytes"))

	if w.Code != http.StatusOK {
		t.Fatalf("attach: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	attachment, _ := resp["attachment"].(map[string]any)
	if attachment["doc_type"] != "PAN_CARD" || attachment["file_name"] != "pan.pdf" {
		t.Fatalf("unexpected attachment: %+v", attachment)
	}
	preview, _ := resp["preview"].(string)
	if preview != "/v1/applications/"+appID+"/documents/PAN_CARD" {
		t.Fatalf("unexpected preview path: %s", preview)
	}
}

func TestAttachDocumentValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.accessCookie(t, "u-1", auth.RoleApplicant)
	appID := createApplication(t, env, cookie, map[string]any{"name": "Asha"})

	t.Run("missing doc number", func(t *testing.T) {
		w := attachDocument(t, env, cookie, appID,
			map[string]string{"doc_type": "PAN_CARD"}, "pan.pdf", []byte("pdf-bytes"))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if decodeBody(t, w)["error"] != "missing_doc_number" {
			t.Fatalf("expected missing_doc_number, got %s", w.Body.String())
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		w := attachDocument(t, env, cookie, appID,
			map[string]string{"doc_type": "DRIVING_LICENSE"}, "dl.pdf", []byte("pdf-bytes"))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if decodeBody(t, w)["error"] != "unsupported_type" {
			t.Fatalf("expected unsupported_type, got %s", w.Body.String())
		}
	})

	t.Run("oversized file", func(t *testing.T) {
		w := attachDocument(t, env, cookie, appID,
			map[string]string{"doc_type": "PHOTOGRAPH"}, "huge.jpg", bytes.Repeat([]byte("a"), (1<<20)+1))
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})

	t.Run("unknown application", func(t *testing.T) {
		w := attachDocument(t, env, cookie, "missing-app",
			map[string]string{"doc_type": "PHOTOGRAPH"}, "photo.jpg", []byte("jpeg-bytes"))
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestDocumentChecklistAndCompleteness(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.accessCookie(t, "u-1", auth.RoleApplicant)
	appID := createApplication(t, env, cookie, map[string]any{"name": "Asha"})

	req := httptest.NewRequest(http.MethodGet, "/v1/applications/"+appID+"/documents", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	resp := decodeBody(t, w)
	if resp["complete"] != false {
		t.Fatalf("expected incomplete checklist")
	}
	docs, _ := resp["documents"].([]any)
	if len(docs) != 2 {
		t.Fatalf("expected baseline checklist of 2, got %d", len(docs))
	}

	for docType, docNo := range map[string]string{"PAN_CARD": "ABCDE1234F", "AADHAAR_CARD": "123412341234"} {
		w := attachDocument(t, env, cookie, appID,
			map[string]string{"doc_type": docType, "doc_no": docNo},
			"doc.pdf", []byte("pdf-bytes"))
		if w.Code != http.StatusOK {
			t.Fatalf("attach %s: expected 200, got %d", docType, w.Code)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/applications/"+appID+"/documents", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if decodeBody(t, w)["complete"] != true {
		t.Fatalf("expected complete checklist after baseline uploads: %s", w.Body.String())
	}
}

func TestDocumentReplacementKeepsSingleVersion(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.accessCookie(t, "u-1", auth.RoleApplicant)
	appID := createApplication(t, env, cookie, map[string]any{"name": "Asha"})

	first := attachDocument(t, env, cookie, appID,
		map[string]string{"doc_type": "PHOTOGRAPH"}, "photo-v1.jpg", []byte("v1"))
	if first.Code != http.StatusOK {
		t.Fatalf("first attach: expected 200, got %d", first.Code)
	}
	second := attachDocument(t, env, cookie, appID,
		map[string]string{"doc_type": "PHOTOGRAPH"}, "photo-v2.jpg", []byte("v2"))
	if second.Code != http.StatusOK {
		t.Fatalf("second attach: expected 200, got %d", second.Code)
	}

	attachments, err := env.docRepo.ListByApplication(context.Background(), appID)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(attachments) != 1 {
		t.Fatalf("expected one attachment per type, got %d", len(attachments))
	}
	if attachments[0].FileName != "photo-v2.jpg" {
		t.Fatalf("expected latest version, got %s", attachments[0].FileName)
	}
}

func TestDownloadDocument(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.accessCookie(t, "u-1", auth.RoleApplicant)
	appID := createApplication(t, env, cookie, map[string]any{"name": "Asha"})

	w := attachDocument(t, env, cookie, appID,
		map[string]string{"doc_type": "PHOTOGRAPH"}, "photo.jpg", []byte("jpeg-bytes"))
	if w.Code != http.StatusOK {
		t.Fatalf("attach: expected 200, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/applications/"+appID+"/documents/PHOTOGRAPH", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatalf("expected payload bytes")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/applications/"+appID+"/documents/PAN_CARD", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for absent document, got %d", w.Code)
	}
}
