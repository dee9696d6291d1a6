// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in         string
		bucket     string
		key        string
		wantErrMsg string
	}{
		{in: "s3://census/bds/bds2021.csv", bucket: "census", key: "bds/bds2021.csv"},
		{in: "s3://census/a", bucket: "census", key: "a"},
		{in: "s3://census/", wantErrMsg: "must be s3://bucket/key"},
		{in: "s3:///key", wantErrMsg: "must be s3://bucket/key"},
		{in: "https://census/key", wantErrMsg: "not an s3 url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, k, err := ParseS3URL(tt.in)
			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, b)
			assert.Equal(t, tt.key, k)
		})
	}
}

func TestApply(t *testing.T) {
	o := apply([]Option{
		WithProfile("data"),
		WithRegion("us-east-2"),
		WithEndpoint("http://localhost:9000", true),
		WithAnonymous(),
	})
	assert.Equal(t, options{
		profile:   "data",
		region:    "us-east-2",
		endpoint:  "http://localhost:9000",
		pathStyle: true,
		anonymous: true,
	}, o)
}
