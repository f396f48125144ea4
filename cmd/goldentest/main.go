// Command goldentest compiles every example program and compares the
// emitted assembly against checked-in golden records. Run with -update
// after an intentional backend change to regenerate them.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/compiler"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
)

// GoldenRecord is the on-disk snapshot of one example's compilation. The
// source hash detects records that predate an edit to the example itself.
type GoldenRecord struct {
	SourceHash string `json:"source_hash"`
	Assembly   string `json:"assembly"`
	Errors     int    `json:"errors"`
	Warnings   int    `json:"warnings"`
}

type FileResult struct {
	File    string `json:"file"`
	Status  string `json:"status"` // PASS, FAIL, STALE, ERROR
	Message string `json:"message,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

var (
	testFiles  = flag.String("files", "examples/*.c", "Glob pattern for source files to test.")
	goldenDir  = flag.String("dir", "examples/golden", "Directory holding the golden .json records.")
	outputJSON = flag.String("output", "", "Optional path for a JSON test report.")
	update     = flag.Bool("update", false, "Regenerate the golden records instead of comparing.")
	jobs       = flag.Int("j", 4, "Number of parallel compile jobs.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	files, err := filepath.Glob(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s bad glob pattern %q: %v", cRed, cNone, *testFiles, err)
	}
	if len(files) == 0 {
		log.Printf("no files match %q", *testFiles)
		return
	}
	sort.Strings(files)

	if *update {
		if err := os.MkdirAll(*goldenDir, 0o755); err != nil {
			log.Fatalf("%s[ERROR]%s cannot create %s: %v", cRed, cNone, *goldenDir, err)
		}
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileResult, len(files))
	var wg sync.WaitGroup
	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				if *update {
					resultsChan <- updateGolden(file)
				} else {
					resultsChan <- checkGolden(file)
				}
			}
		}()
	}
	for _, file := range files {
		tasks <- file
	}
	close(tasks)
	wg.Wait()
	close(resultsChan)

	var results []*FileResult
	for result := range resultsChan {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })

	failed := printSummary(results)
	if *outputJSON != "" {
		writeReport(results)
	}
	if failed {
		os.Exit(1)
	}
}

func goldenPath(sourceFile string) string {
	return filepath.Join(*goldenDir, filepath.Base(sourceFile)+".json")
}

func hashBytes(data []byte) string {
	return fmt.Sprintf("%x", xxhash.Sum64(data))
}

// snapshot compiles one example with default settings and packages the
// outcome as a golden record.
func snapshot(file string) (*GoldenRecord, error) {
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	result, compileErr := compiler.Compile(file, string(source), config.NewConfig())
	record := &GoldenRecord{
		SourceHash: hashBytes(source),
		Assembly:   result.Assembly,
		Errors:     len(result.Diags.Errors()),
		Warnings:   len(result.Diags.Warnings()),
	}
	// A rejected program is still a valid golden outcome; the record just
	// carries no assembly
	_ = compileErr
	return record, nil
}

func updateGolden(file string) *FileResult {
	record, err := snapshot(file)
	if err != nil {
		return &FileResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &FileResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	if err := os.WriteFile(goldenPath(file), append(data, '\n'), 0o644); err != nil {
		return &FileResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	return &FileResult{File: file, Status: "PASS", Message: "golden record written"}
}

func checkGolden(file string) *FileResult {
	goldenData, err := os.ReadFile(goldenPath(file))
	if err != nil {
		return &FileResult{File: file, Status: "ERROR", Message: fmt.Sprintf("no golden record (run with -update): %v", err)}
	}
	var golden GoldenRecord
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return &FileResult{File: file, Status: "ERROR", Message: fmt.Sprintf("bad golden record: %v", err)}
	}

	actual, err := snapshot(file)
	if err != nil {
		return &FileResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	if actual.SourceHash != golden.SourceHash {
		return &FileResult{File: file, Status: "STALE", Message: "source changed since the golden record was generated"}
	}
	if diff := cmp.Diff(golden, *actual); diff != "" {
		return &FileResult{File: file, Status: "FAIL", Message: "output differs from golden record", Diff: diff}
	}
	return &FileResult{File: file, Status: "PASS"}
}

func printSummary(results []*FileResult) bool {
	var passed, failed, stale, errored int
	for _, result := range results {
		switch result.Status {
		case "PASS":
			passed++
			fmt.Printf("[%sPASS%s]  %s\n", cGreen, cNone, result.File)
		case "STALE":
			stale++
			fmt.Printf("[%sSTALE%s] %s: %s\n", cYellow, cNone, result.File, result.Message)
		case "FAIL":
			failed++
			fmt.Printf("[%sFAIL%s]  %s: %s\n", cRed, cNone, result.File, result.Message)
			fmt.Println(indent(result.Diff))
		case "ERROR":
			errored++
			fmt.Printf("[%sERROR%s] %s: %s\n", cRed, cNone, result.File, result.Message)
		}
	}
	fmt.Printf("\n%d passed, %d failed, %d stale, %d errored, %d total\n",
		passed, failed, stale, errored, len(results))
	return failed > 0 || errored > 0
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	return "    " + strings.Join(lines, "\n    ")
}

func writeReport(results []*FileResult) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s cannot marshal report: %v", cRed, cNone, err)
		return
	}
	if err := os.WriteFile(*outputJSON, data, 0o644); err != nil {
		log.Printf("%s[ERROR]%s cannot write %s: %v", cRed, cNone, *outputJSON, err)
		return
	}
	fmt.Printf("report saved to %s\n", *outputJSON)
}
