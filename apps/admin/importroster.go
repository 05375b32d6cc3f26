package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
)

type (
	// rosterFile is the layout of an importroster YAML file:
	//
	//	teachers:
	//	  - code: BDI
	//	    name: Budi Santoso
	//	roster:
	//	  - teacher: BDI
	//	    class: 7A
	//	    day: Senin
	//	    hours: [1, 2]
	rosterFile struct {
		Teachers []teacherRow `yaml:"teachers"`
		Roster   []entryRow   `yaml:"roster"`
	}

	teacherRow struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	}

	entryRow struct {
		Teacher string     `yaml:"teacher"` // teacher code
		Class   string     `yaml:"class"`
		Day     roster.Day `yaml:"day"`
		Hours   []int      `yaml:"hours"`
	}

	rejection struct {
		Line   int
		Entry  entryRow
		Reason string
	}

	importResult struct {
		TeachersCreated int
		TeachersUpdated int
		EntriesCreated  int
		Rejected        []rejection
	}
)

func (cli *commandLine) importRosterFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := cli.importRoster(context.Background(), f)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "teachers: %d created, %d updated\n", res.TeachersCreated, res.TeachersUpdated)
	fmt.Fprintf(cli.out, "roster entries: %d created, %d rejected\n", res.EntriesCreated, len(res.Rejected))
	for _, rej := range res.Rejected {
		fmt.Fprintf(cli.out, "  line %d (%s %s %s %v): %s\n",
			rej.Line, rej.Entry.Teacher, rej.Entry.Class, rej.Entry.Day, rej.Entry.Hours, rej.Reason)
	}
	return nil
}

// importRoster upserts the teachers by code, then creates the roster entries one by one through
// the conflict checks, so that an entry conflicting with an earlier one of the file is rejected.
// Rejected entries do not stop the import.
func (cli *commandLine) importRoster(ctx context.Context, r io.Reader) (importResult, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return importResult{}, nil
		}
		return importResult{}, errors.Wrap(err, "parsing roster file")
	}
	var file rosterFile
	if err := doc.Decode(&file); err != nil {
		return importResult{}, errors.Wrap(err, "decoding roster file")
	}

	var res importResult
	for _, row := range file.Teachers {
		created, err := cli.upsertTeacher(ctx, row)
		if err != nil {
			return res, errors.Wrapf(err, "importing teacher %q", row.Code)
		}
		if created {
			res.TeachersCreated++
		} else {
			res.TeachersUpdated++
		}
	}

	lines := entryLines(&doc)
	for i, row := range file.Roster {
		rej := rejection{Entry: row}
		if i < len(lines) {
			rej.Line = lines[i]
		}

		t, err := cli.teacherSvc.GetByCode(ctx, row.Teacher)
		if err != nil {
			if err != teacher.ErrNotFound {
				return res, err
			}
			rej.Reason = fmt.Sprintf("unknown teacher %q", row.Teacher)
			res.Rejected = append(res.Rejected, rej)
			continue
		}

		ne := roster.NewEntry{TeacherID: t.ID, ClassID: row.Class, Day: row.Day, Hours: row.Hours}
		if err = ne.Validate(cli.validate); err != nil {
			rej.Reason = cli.describe(err)
			res.Rejected = append(res.Rejected, rej)
			continue
		}
		if _, err = cli.rosterSvc.Create(ctx, ne); err != nil {
			var cErr *roster.ConflictError
			if !errors.As(err, &cErr) {
				return res, errors.Wrapf(err, "importing roster entry line %d", rej.Line)
			}
			rej.Reason = cErr.Message
			res.Rejected = append(res.Rejected, rej)
			continue
		}
		res.EntriesCreated++
	}
	return res, nil
}

func (cli *commandLine) upsertTeacher(ctx context.Context, row teacherRow) (bool, error) {
	existing, err := cli.teacherSvc.GetByCode(ctx, row.Code)
	switch err {
	case nil:
		data := teacher.UpdateTeacher{Name: row.Name}
		if err = data.Validate(existing, cli.validate); err != nil {
			return false, errors.New(cli.describe(err))
		}
		_, err = cli.teacherSvc.Update(ctx, existing.ID, data)
		return false, err
	case teacher.ErrNotFound:
		data := teacher.NewTeacher{Code: row.Code, Name: row.Name}
		if err = data.Validate(cli.validate); err != nil {
			return false, errors.New(cli.describe(err))
		}
		_, err = cli.teacherSvc.Create(ctx, data)
		return err == nil, err
	default:
		return false, err
	}
}

// entryLines returns the line of each item of the roster sequence of doc.
func entryLines(doc *yaml.Node) []int {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "roster" {
			continue
		}
		seq := root.Content[i+1]
		lines := make([]int, 0, len(seq.Content))
		for _, item := range seq.Content {
			lines = append(lines, item.Line)
		}
		return lines
	}
	return nil
}
