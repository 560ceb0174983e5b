/*
Copyright 2024 Bookbank Authors.

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

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/bookbank/bookbank"
	"github.com/bookbank/bookbank/config"
	"github.com/bookbank/bookbank/database"
	"github.com/bookbank/bookbank/internal/notification"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Bookbank is the command-line application.
type Bookbank struct {
	cmd *cobra.Command
}

// bookbankInstance carries the service and configuration shared by the subcommands.
type bookbankInstance struct {
	bookbank *bookbank.Bookbank
	cnf      *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads configFile and builds the service before any subcommand runs.
func preRun(app *bookbankInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newBookbank, err := setupBookbank(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.bookbank = newBookbank
		app.cnf = cnf
		return nil
	}
}

func setupBookbank(cfg *config.Configuration) (*bookbank.Bookbank, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newBookbank, err := bookbank.NewBookbank(db)
	if err != nil {
		return nil, fmt.Errorf("error creating bookbank: %v", err)
	}
	return newBookbank, nil
}

func NewCLI() *Bookbank {
	var configFile string
	b := &bookbankInstance{}

	rootCmd := &cobra.Command{
		Use:   "bookbank",
		Short: "Library and banking core",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./bookbank.json", "Configuration file for bookbank")
	rootCmd.PersistentPreRunE = preRun(b, &configFile)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(migrateCommands(b))
	rootCmd.AddCommand(configCommands())

	return &Bookbank{cmd: rootCmd}
}

func (w Bookbank) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
