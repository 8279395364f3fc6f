//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/ioutil"
)

// File returns the hex-encoded SHA-256 digest of a file's content. The test
// registry uses it to detect whitelist changes since the last rebuild.
func File(path string) (string, error) {
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read %s: %s", path, err)
	}
	digest := sha256.Sum256(content)
	return hex.EncodeToString(digest[:]), nil
}
