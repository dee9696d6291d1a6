// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws holds the AWS SDK v2 plumbing used to read catalog sources
// published as s3:// objects.
package aws
