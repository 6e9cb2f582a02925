package jsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrMalformed = errors.New("malformed instance")

// ParseError reports where an instance file stopped making sense.
type ParseError struct {
	Name string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s:%d: %s", ErrMalformed, e.Name, e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrMalformed }

// catalogEntry is one record of an instances.json catalog.
type catalogEntry struct {
	Name     string `json:"name"`
	Jobs     int    `json:"jobs"`
	Machines int    `json:"machines"`
	Optimum  int    `json:"optimum"`
	Path     string `json:"path"`
}

// Parse reads an instance in the text format: lines starting with '#' are comments,
// the first significant line holds "jobs tasks", then one line per job with
// "machine duration" pairs in operation order.
func Parse(name string, r io.Reader) (*Instance, error) {
	reader := bufio.NewReader(r)
	lineNo := 0
	jobs, tasks := -1, -1
	var work [][]WorkPair
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) == 0 && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		lineNo++
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			if err == io.EOF {
				break
			}
			continue
		}
		splits := bytes.Fields(line)
		if jobs < 0 {
			if len(splits) != 2 {
				return nil, &ParseError{Name: name, Line: lineNo, Msg: "header must be \"jobs tasks\""}
			}
			if jobs, err = atoi(splits[0]); err != nil || jobs <= 0 {
				return nil, &ParseError{Name: name, Line: lineNo, Msg: fmt.Sprintf("bad job count %q", splits[0])}
			}
			if tasks, err = atoi(splits[1]); err != nil || tasks <= 0 {
				return nil, &ParseError{Name: name, Line: lineNo, Msg: fmt.Sprintf("bad task count %q", splits[1])}
			}
			work = make([][]WorkPair, 0, jobs)
			continue
		}
		if len(work) == jobs {
			return nil, &ParseError{Name: name, Line: lineNo, Msg: fmt.Sprintf("more than %d job lines", jobs)}
		}
		if len(splits) != tasks*2 {
			return nil, &ParseError{Name: name, Line: lineNo,
				Msg: fmt.Sprintf("job line has %d fields, want %d", len(splits), tasks*2)}
		}
		row := make([]WorkPair, 0, tasks)
		for j := 0; j < tasks*2; j += 2 {
			machine, err := atoi(splits[j])
			if err != nil {
				return nil, &ParseError{Name: name, Line: lineNo, Msg: fmt.Sprintf("bad machine %q", splits[j])}
			}
			duration, err := atoi(splits[j+1])
			if err != nil {
				return nil, &ParseError{Name: name, Line: lineNo, Msg: fmt.Sprintf("bad duration %q", splits[j+1])}
			}
			row = append(row, WorkPair{Machine: machine, Duration: duration})
		}
		work = append(work, row)
	}
	if jobs < 0 {
		return nil, &ParseError{Name: name, Line: lineNo, Msg: "missing header"}
	}
	if len(work) != jobs {
		return nil, &ParseError{Name: name, Line: lineNo, Msg: fmt.Sprintf("found %d job lines, want %d", len(work), jobs)}
	}
	inst, err := NewInstance(name, work)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
	}
	return inst, nil
}

// Write prints inst in the format Parse reads, preceded by a comment naming it.
func Write(w io.Writer, inst *Instance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n%d %d\n", inst.Name, inst.jobs, inst.tasks)
	for j := 0; j < inst.jobs; j++ {
		for t := 0; t < inst.tasks; t++ {
			if t > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%d %d", inst.machines[j][t], inst.durations[j][t])
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func atoi(b []byte) (int, error) {
	return strconv.Atoi(string(b))
}

// Load parses the instance file at path. The instance is named after the file.
func Load(path string) (*Instance, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(filepath.Base(path), file)
}

// LoadCatalog reads an instances.json catalog and every instance it lists. Instance paths
// are relative to the catalog's directory.
func LoadCatalog(catalogPath string) ([]*Instance, error) {
	fileBytes, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, err
	}
	var entries []catalogEntry
	if err := json.Unmarshal(fileBytes, &entries); err != nil {
		return nil, fmt.Errorf("%w: catalog %s: %w", ErrMalformed, catalogPath, err)
	}

	dir := filepath.Dir(catalogPath)
	instances := make([]*Instance, 0, len(entries))
	for _, entry := range entries {
		inst, err := Load(filepath.Join(dir, entry.Path))
		if err != nil {
			return nil, err
		}
		if inst.NumJobs() != entry.Jobs || inst.NumMachines() != entry.Machines {
			return nil, fmt.Errorf("%w: %s is %dx%d, catalog says %dx%d", ErrMalformed, entry.Name,
				inst.NumJobs(), inst.NumMachines(), entry.Jobs, entry.Machines)
		}
		inst.Name = entry.Name
		inst.Optimum = entry.Optimum
		instances = append(instances, inst)
	}
	return instances, nil
}

// MatchPrefix returns the instances whose name starts with prefix, in catalog order.
func MatchPrefix(instances []*Instance, prefix string) ([]*Instance, error) {
	var matches []*Instance
	for _, inst := range instances {
		if strings.HasPrefix(inst.Name, prefix) {
			matches = append(matches, inst)
		}
	}
	if len(matches) == 0 {
		names := make([]string, len(instances))
		for i, inst := range instances {
			names[i] = inst.Name
		}
		return nil, fmt.Errorf("instance prefix %q matches nothing; available: %v", prefix, names)
	}
	return matches, nil
}

// Random builds a jobs x machines instance with durations in [20, 220) and a random
// machine order per job.
func Random(jobs, machines int, rng *rand.Rand) *Instance {
	work := make([][]WorkPair, jobs)
	for j := 0; j < jobs; j++ {
		row := make([]WorkPair, machines)
		for m := 0; m < machines; m++ {
			row[m] = WorkPair{m, rng.Intn(200) + 20}
		}
		rng.Shuffle(len(row), func(i, j int) {
			row[i], row[j] = row[j], row[i]
		})
		work[j] = row
	}
	return MustInstance(fmt.Sprintf("rand-%dx%d", jobs, machines), work)
}
