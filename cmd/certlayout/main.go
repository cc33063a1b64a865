/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"certlayout/internal/config"
	"certlayout/internal/crash"
	applog "certlayout/internal/log"
	"certlayout/internal/version"
)

func usage() {
	fmt.Println("CertLayout - certificate layout editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  certlayout version|-v|--version                      Show version")
	fmt.Println("  certlayout validate <batch.json>                      Check a batch file and print a summary")
	fmt.Println("  certlayout new <layout.json> [name]                   Create a starter layout")
	fmt.Println("  certlayout preview <layout.json> [out.html]           Render the editor preview")
	fmt.Println("  certlayout proof <layout.json> <out.png>              Draw the element boxes as PNG")
	fmt.Println("  certlayout compile <batch.json> <layout.json> <out>   Compile every recipient (out.zip or a directory)")
	fmt.Println("  certlayout submit <batch.json> <layout.json> <out.json>")
	fmt.Println("                                                        Compile and write the submission payload")
	fmt.Println("  certlayout templates list                             List saved templates")
	fmt.Println("  certlayout templates save <name> <layout.json>        Save a layout as template")
	fmt.Println("  certlayout templates show <name> [out.json]           Print or restore a template")
	fmt.Println("  certlayout templates history <name>                   List stored snapshots of a template")
	fmt.Println("  certlayout templates delete <name>                    Delete a template")
	fmt.Println("  certlayout config [password]                          Show config location, or set the storage password from stdin")
}

func main() {
	cfg, password, cfgErr := config.Load()
	opts := loggingOptions(cfg)
	applog.Init(opts)
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}
	sess := &crash.Session{}
	defer crash.Recover(sess)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	app := &cli{cfg: cfg, password: password, log: l, session: sess}
	ctx := context.Background()

	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("CertLayout")
		fmt.Println(version.String())
		return
	case "validate":
		need(args, 3, "validate requires <batch.json>")
		err = app.validate(args[2])
	case "new":
		need(args, 3, "new requires <layout.json>")
		name := ""
		if len(args) > 3 {
			name = args[3]
		}
		err = app.newLayout(ctx, args[2], name)
	case "preview":
		need(args, 3, "preview requires <layout.json>")
		out := ""
		if len(args) > 3 {
			out = args[3]
		}
		err = app.preview(args[2], out)
	case "proof":
		need(args, 4, "proof requires <layout.json> and <out.png>")
		err = app.proof(args[2], args[3])
	case "compile":
		need(args, 5, "compile requires <batch.json>, <layout.json> and <out>")
		err = app.compile(args[2], args[3], args[4])
	case "submit":
		need(args, 5, "submit requires <batch.json>, <layout.json> and <out.json>")
		err = app.submit(ctx, args[2], args[3], args[4])
	case "templates":
		need(args, 3, "templates requires a subcommand")
		err = app.templates(ctx, args[2:])
	case "config":
		if len(args) > 2 && args[2] == "password" {
			err = app.setPassword(os.Stdin)
		} else {
			err = app.showConfig()
		}
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Println("unknown command:", args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(err)
			usage()
			os.Exit(2)
		}
		l.Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func need(args []string, n int, msg string) {
	if len(args) < n {
		fmt.Println(msg)
		usage()
		os.Exit(2)
	}
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
