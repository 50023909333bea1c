/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const historyDBName = "sraflow.db"

// collectAccessions merges positional arguments with the optional accession
// list file (one accession per line, '#' starts a comment), preserving order
// and dropping duplicates.
func collectAccessions(args []string, listFile string) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	for _, a := range args {
		add(a)
	}

	if listFile != "" {
		f, err := os.Open(listFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read accession list: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if i := strings.Index(line, "#"); i >= 0 {
				line = line[:i]
			}
			add(line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read accession list: %w", err)
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no accessions given (pass them as arguments or via --accession-list)")
	}
	return ids, nil
}

// historyDBPath resolves the run-history database location: an explicit --db
// wins, otherwise the database lives next to the pipeline output.
func historyDBPath(explicit, outputDir string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(outputDir, historyDBName)
}
