package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/semillerodigital/dashboard/core/classroom"
)

var (
	readTokenFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc        *classroom.Service
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
	color      bool
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  courses [-token FILE] [-teacher NAME]                   - list every course with its teachers")
	fmt.Fprintln(cli.out, "  coursework [-token FILE] -course ID -work ID            - delivery status of one course-work item")
	fmt.Fprintln(cli.out, "Without -token, the access token is prompted for.")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	coursesCmd := flag.NewFlagSet("courses", flag.ContinueOnError)
	coursesToken := coursesCmd.String("token", "", "A JSON file holding an OAuth2 token (as saved by oauth2.Token).")
	coursesTeacher := coursesCmd.String("teacher", "", "Only list the courses of this teacher.")

	courseWorkCmd := flag.NewFlagSet("coursework", flag.ContinueOnError)
	courseWorkToken := courseWorkCmd.String("token", "", "A JSON file holding an OAuth2 token (as saved by oauth2.Token).")
	courseWorkCourse := courseWorkCmd.String("course", "", "The course ID.")
	courseWorkWork := courseWorkCmd.String("work", "", "The course-work ID.")

	switch args[1] {
	case "courses":
		coursesCmd.SetOutput(cli.out)
		if err := coursesCmd.Parse(args[2:]); err != nil {
			return err
		}
		creds, err := cli.credentials(*coursesToken)
		if err != nil {
			return err
		}
		return cli.courses(creds, *coursesTeacher)
	case "coursework":
		courseWorkCmd.SetOutput(cli.out)
		if err := courseWorkCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *courseWorkCourse == "" || *courseWorkWork == "" {
			courseWorkCmd.Usage()
			return errHelp
		}
		if err := cli.validateID("course", *courseWorkCourse); err != nil {
			return err
		}
		if err := cli.validateID("work", *courseWorkWork); err != nil {
			return err
		}
		creds, err := cli.credentials(*courseWorkToken)
		if err != nil {
			return err
		}
		return cli.courseWork(creds, *courseWorkCourse, *courseWorkWork)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) validateID(name, id string) error {
	if err := cli.validate.Var(id, "required,classroomid"); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			return fmt.Errorf("-%s: %s", name, strings.TrimSpace(vErrs[0].Translate(cli.translator)))
		}
		return err
	}
	return nil
}

// credentials reads the access token from a saved oauth2.Token, or prompts for it.
func (cli *commandLine) credentials(tokenFile string) (classroom.Credentials, error) {
	if tokenFile == "" {
		fmt.Fprint(cli.out, "Enter access token:")
		tok, err := readTokenFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return classroom.Credentials{}, err
		}
		return classroom.Credentials{AccessToken: strings.TrimSpace(string(tok))}, nil
	}

	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return classroom.Credentials{}, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return classroom.Credentials{}, fmt.Errorf("reading %s: %w", tokenFile, err)
	}
	if !tok.Valid() {
		return classroom.Credentials{}, fmt.Errorf("%s: token expired or empty", tokenFile)
	}
	return classroom.Credentials{AccessToken: tok.AccessToken}, nil
}
