package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"github.com/campusgrid/timetabling/pkg/model"
)

const (
	executablePath            = "../../bin/timetabling"
	feasibleTestDirectory     = "../../pkg/model/testdata/feasible/"
	infeasibleTestDirectory   = "../../pkg/model/testdata/infeasible/"
	resultsFile               = "benchmark_results.csv"
	MB                float32 = 1024
)

type ResultType int

const (
	complete ResultType = iota
	partial
)

var resultTypes = map[ResultType]string{
	complete: "complete",
	partial:  "partial",
}

type TestMetadata struct {
	Name     string
	Feasible bool
	Courses  int
	Faculty  int
	Rooms    int
	Sessions int
}

type SearchMetadata struct {
	Strategy   string
	NodeBudget int
	PairedLabs bool
}

type BenchmarkResult struct {
	Strategy      string  `csv:"Strategy"`
	NodeBudget    int     `csv:"Node Budget"`
	PairedLabs    bool    `csv:"Paired Labs"`
	Test          string  `csv:"Test"`
	Feasible      bool    `csv:"Feasible"`
	Courses       int     `csv:"Courses"`
	Faculty       int     `csv:"Faculty"`
	Rooms         int     `csv:"Rooms"`
	Sessions      int     `csv:"Sessions"`
	Duration      int64   `csv:"Duration(ms)"`
	Memory        float32 `csv:"Memory(MB)"`
	CpuPercentage int64   `csv:"CPU(%)"`
	Nodes         int     `csv:"Nodes"`
	Unplaceable   int     `csv:"Unplaceable"`
	Score         float64 `csv:"Score"`
	Result        string  `csv:"Result"`
}

func main() {
	tests := getTests()
	searches := getSearches()
	results := make([]*BenchmarkResult, 0, len(tests)*len(searches))

	for _, test := range tests {
		for _, search := range searches {
			fmt.Printf("Benchmarking test \"%v\" with strategy \"%v\", node budget \"%v\" and paired labs \"%v\"\n", test.Name, search.Strategy, search.NodeBudget, search.PairedLabs)

			duration, maxMemory, cpuPercentage, schedule, result := measure(search, test.Name)

			results = append(results, &BenchmarkResult{
				Strategy:      search.Strategy,
				NodeBudget:    search.NodeBudget,
				PairedLabs:    search.PairedLabs,
				Test:          test.Name,
				Feasible:      test.Feasible,
				Courses:       test.Courses,
				Faculty:       test.Faculty,
				Rooms:         test.Rooms,
				Sessions:      test.Sessions,
				Duration:      duration,
				Memory:        maxMemory,
				CpuPercentage: cpuPercentage,
				Nodes:         schedule.NodesExpanded,
				Unplaceable:   len(schedule.Unplaceable),
				Score:         schedule.Score.Total,
				Result:        resultTypes[result],
			})
		}
	}

	toCsv(results)
}

func getTests() []TestMetadata {
	tests := make([]TestMetadata, 0)
	for _, tuple := range lo.Zip2([]string{feasibleTestDirectory, infeasibleTestDirectory}, []bool{true, false}) {
		directory, feasible := tuple.A, tuple.B
		testFiles, err := os.ReadDir(directory)
		if err != nil {
			log.Fatalf("cannot read directory: %v", err)
		}

		for _, file := range testFiles {
			filename := directory + file.Name()
			input, err := model.InputFromFile(filename)
			if err != nil {
				log.Fatalf("cannot parse input file: %v", err)
			}

			sessions := 0
			for _, course := range input.Courses {
				derived, err := model.DeriveSessions(course, model.DerivationOptions{})
				if err != nil {
					log.Fatalf("cannot derive sessions of %v: %v", course.Code, err)
				}
				sessions += len(derived)
			}

			tests = append(tests, TestMetadata{
				Name:     filename,
				Feasible: feasible,
				Courses:  len(input.Courses),
				Faculty:  len(input.Faculty),
				Rooms:    len(input.Rooms),
				Sessions: sessions,
			})
		}
	}

	return tests
}

func getSearches() []SearchMetadata {
	return []SearchMetadata{
		{Strategy: "greedy", NodeBudget: model.DefaultNodeBudget},
		{Strategy: "backtracking", NodeBudget: 1_000},
		{Strategy: "backtracking", NodeBudget: 100_000},
		{Strategy: "backtracking", NodeBudget: model.DefaultNodeBudget},
		{Strategy: "backtracking", NodeBudget: model.DefaultNodeBudget, PairedLabs: true},
	}
}

func measure(search SearchMetadata, testFile string) (duration int64, maxMemory float32, cpuPercentage int64, schedule model.Schedule, result ResultType) {
	cmd := exec.Command("/usr/bin/time", "-v", executablePath, "build",
		"--strategy", search.Strategy,
		"--budget", fmt.Sprint(search.NodeBudget),
		"--paired-labs="+strconv.FormatBool(search.PairedLabs),
		"--file", testFile,
	)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	if cmd.ProcessState.ExitCode() != 10 && cmd.ProcessState.ExitCode() != 20 {
		log.Fatalf("an error occurred during the execution \"timetabling\" at test \"%v\" using strategy \"%v\" and node budget \"%v\": %v\n", testFile, search.Strategy, search.NodeBudget, stdErr.String())
	} else if cmd.ProcessState.ExitCode() == 20 {
		result = partial
	} else {
		result = complete
	}
	if err := json.Unmarshal(stdOut.Bytes(), &schedule); err != nil {
		log.Fatalf("cannot parse the schedule of test \"%v\": %v", testFile, err)
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return duration, maxMemory, cpuPercentage, schedule, result
}

func toCsv(results []*BenchmarkResult) {
	file, err := os.Create(resultsFile)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&results, file); err != nil {
		log.Panicf("cannot write CSV records: %v", err)
	}
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / MB
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
