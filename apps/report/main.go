package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/classroom"
	classroomsvc "github.com/semillerodigital/dashboard/services/classroom"
	logsvc "github.com/semillerodigital/dashboard/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewConsoleLogger(os.Stderr, conf, "report")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	var provider classroom.Provider = classroomsvc.NewGoogleProvider(conf)
	if conf.UseFixtures() {
		fp, err := classroomsvc.NewFixtureProvider(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("loading fixtures: %v", err), err)
		}
		provider = fp
	}

	// start CLI
	cli := commandLine{
		svc:        classroom.NewService(conf, logger, provider),
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
		color:      term.IsTerminal(int(os.Stdout.Fd())),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
