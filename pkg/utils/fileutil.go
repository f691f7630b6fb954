package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
)

const (
	pdfExt            = ".pdf"
	watermarkedSuffix = "-watermarked"
	defaultFilename   = "document.pdf"
)

// PDFHeaderSearchLen is how far into a file the %PDF- header may start.
const PDFHeaderSearchLen = 1024

var ErrForbiddenURL = errors.New("pdf url not allowed")

var pdfHeader = []byte("%PDF-")

// HasPDFHeader reports whether data carries a PDF header within its first
// PDFHeaderSearchLen bytes. Readers tolerate junk before the header.
func HasPDFHeader(data []byte) bool {
	if len(data) > PDFHeaderSearchLen {
		data = data[:PDFHeaderSearchLen]
	}
	return bytes.Contains(data, pdfHeader)
}

// ValidateSourceURL accepts absolute http(s) URLs that do not name a local or
// private host. Hostnames are checked again on every dial by DownloadPDF.
func ValidateSourceURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForbiddenURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrForbiddenURL, u.Scheme)
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrForbiddenURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return nil, fmt.Errorf("%w: host %s", ErrForbiddenURL, host)
	}
	if ip := net.ParseIP(host); ip != nil && !isPublicIP(ip) {
		return nil, fmt.Errorf("%w: address %s", ErrForbiddenURL, ip)
	}

	return u, nil
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast())
}

// publicDialControl refuses connections to non public addresses. It runs
// after name resolution, so DNS names pointing inward are caught too.
func publicDialControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrForbiddenURL, err)
	}

	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: address %s", ErrForbiddenURL, host)
	}
	return nil
}

func newPublicClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: publicDialControl,
	}

	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			_, err := ValidateSourceURL(req.URL.String())
			return err
		},
	}
}

// DownloadPDF fetches a PDF from pdfURL, reading at most maxSize bytes. Only
// public http(s) hosts are contacted.
func DownloadPDF(ctx context.Context, pdfURL string, maxSize int64) ([]byte, error) {
	if _, err := ValidateSourceURL(pdfURL); err != nil {
		return nil, err
	}
	return downloadPDF(ctx, newPublicClient(), pdfURL, maxSize)
}

func downloadPDF(ctx context.Context, client *http.Client, pdfURL string, maxSize int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download pdf: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf data: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf data")
	}

	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("pdf exceeds maximum allowed size %d", maxSize)
	}

	if !HasPDFHeader(data) {
		return nil, fmt.Errorf("downloaded file is not a pdf")
	}

	return data, nil
}

// WatermarkedFilename turns "report.pdf" into "report-watermarked.pdf".
func WatermarkedFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = defaultFilename
	}

	ext := filepath.Ext(name)
	if strings.EqualFold(ext, pdfExt) {
		return strings.TrimSuffix(name, ext) + watermarkedSuffix + ext
	}
	return name + watermarkedSuffix + pdfExt
}

func GenerateStorageKey(prefix, filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().Unix()
	uuid := uuid.New().String()[:8]

	return fmt.Sprintf("%s/%s_%d_%s%s", prefix, name, timestamp, uuid, ext)
}
