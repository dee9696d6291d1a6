// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/apex/log"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/antonbabkin/pubdata-sub000/internal/aws"
	"github.com/antonbabkin/pubdata-sub000/internal/cacheutil"
)

// DefaultRetries is the number of HTTP retries after the first attempt.
const DefaultRetries = 3

// Fetcher copies a source URL into a local file. Supported schemes are
// http, https, s3 and file.
type Fetcher struct {
	http    *retryablehttp.Client
	awsOpts []aws.Option

	mu sync.Mutex
	s3 aws.ObjectGetter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRetries sets the HTTP retry count.
func WithRetries(n int) Option {
	return func(f *Fetcher) { f.http.RetryMax = n }
}

// WithBackoff sets the minimum and maximum wait between HTTP retries.
func WithBackoff(minWait, maxWait time.Duration) Option {
	return func(f *Fetcher) {
		f.http.RetryWaitMin = minWait
		f.http.RetryWaitMax = maxWait
	}
}

// WithS3Options sets the options used to build the S3 client on first use.
func WithS3Options(opts ...aws.Option) Option {
	return func(f *Fetcher) { f.awsOpts = opts }
}

// WithS3Client uses g for s3:// sources instead of building a client.
func WithS3Client(g aws.ObjectGetter) Option {
	return func(f *Fetcher) { f.s3 = g }
}

// New returns a Fetcher.
func New(opts ...Option) *Fetcher {
	c := retryablehttp.NewClient()
	c.RetryMax = DefaultRetries
	c.Logger = leveled{}

	f := &Fetcher{http: c}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL to dest. The file is written next to dest and
// renamed into place, so dest either does not exist or is complete.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &DownloadError{URL: rawURL, Err: err}
	}

	var open func(context.Context) (io.ReadCloser, error)
	switch u.Scheme {
	case "http", "https":
		open = func(ctx context.Context) (io.ReadCloser, error) { return f.openHTTP(ctx, rawURL) }
	case "s3":
		open = func(ctx context.Context) (io.ReadCloser, error) { return f.openS3(ctx, rawURL) }
	case "file":
		open = func(context.Context) (io.ReadCloser, error) { return os.Open(u.Path) }
	default:
		return &DownloadError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	log.Debugf("downloading %s to %s", rawURL, dest)
	start := time.Now()
	var n int64
	err = cacheutil.WriteAtomic(dest, func(tmp string) error {
		body, err := open(ctx)
		if err != nil {
			return err
		}
		defer body.Close()

		out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return err
		}
		n, err = io.Copy(out, body)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		return err
	})
	if err != nil {
		var de *DownloadError
		if errors.As(err, &de) {
			return de
		}
		return &DownloadError{URL: rawURL, Err: err}
	}

	log.Debugf("downloaded %s in %s", humanize.Bytes(uint64(n)), time.Since(start).Round(time.Millisecond))
	return nil
}

func (f *Fetcher) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

func (f *Fetcher) openS3(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	bucket, key, err := aws.ParseS3URL(rawURL)
	if err != nil {
		return nil, err
	}
	client, err := f.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3v2.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	return out.Body, nil
}

func (f *Fetcher) s3Client(ctx context.Context) (aws.ObjectGetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.s3 == nil {
		c, err := aws.NewS3(ctx, f.awsOpts...)
		if err != nil {
			return nil, err
		}
		f.s3 = c
	}
	return f.s3, nil
}

// leveled routes retryablehttp logging to apex/log at debug level.
type leveled struct{}

func (leveled) Error(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Error(msg) }
func (leveled) Info(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Debug(msg) }
func (leveled) Debug(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Debug(msg) }
func (leveled) Warn(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Warn(msg) }

func fields(kv []interface{}) log.Fields {
	out := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
