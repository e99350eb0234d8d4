// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
	wasm "github.com/tetratelabs/wazero"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddsbin"
)

const pluginPathEnv = "DDSIDL_CODEGEN_PLUGIN_PATH"

type cmdCodegen struct {
	compileFlags
	outDir        string
	pluginPath    string
	language      string
	pluginOptions []string
}

func (*cmdCodegen) help() *commandHelp {
	return &commandHelp{
		usage:   "codegen FILE.idl",
		summary: "Compile an IDL file and render it with a codegen plugin",
		args:    1,
	}
}

func (cmd *cmdCodegen) flags(flags *pflag.FlagSet) {
	cmd.compileFlags.register(flags)
	flags.StringVarP(&cmd.outDir, "output", "o", "", "output directory")
	flags.StringVar(&cmd.pluginPath, "plugin-path", "", "colon-separated plugin search path (default $"+pluginPathEnv+")")
	flags.StringVar(&cmd.language, "language", "c", "plugin language")
	flags.StringArrayVar(&cmd.pluginOptions, "plugin-option", nil, "option passed through to the plugin")
}

func (cmd *cmdCodegen) run(ctx context.Context, argv []string) int {
	if cmd.outDir == "" {
		fmt.Fprintln(os.Stderr, "No output directory specified (set --output=)")
		return 1
	}
	s, err := cmd.settings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	srcPath := argv[0]
	result := compileFile(os.Stderr, srcPath, s, false)
	if result == nil {
		return 1
	}

	req, err := ddsbin.NewRequest(srcPath, result)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	req.Options = append(s.names(), cmd.pluginOptions...)
	requestBuf, err := ddsbin.EncodeRequest(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	searchPath := cmd.pluginPath
	if searchPath == "" {
		searchPath = s.pluginPath
	}
	pluginPath, err := locatePlugin(searchPath, cmd.language)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	glog.V(1).Infof("running plugin %s", pluginPath)

	response, err := runPlugin(ctx, pluginPath, cmd.language, requestBuf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if response.Error != "" {
		fmt.Fprintln(os.Stderr, strings.TrimRight(response.Error, "\n"))
		return 1
	}
	if len(response.Files) == 0 {
		fmt.Fprintln(os.Stderr, "Plugin did not generate any output files")
		return 1
	}

	if err := os.MkdirAll(cmd.outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, file := range response.Files {
		outPath, err := outputPath(cmd.outDir, file)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		glog.V(1).Infof("writing %s (%d bytes)", outPath, len(file.Content))
		if err := os.WriteFile(outPath, file.Content, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return 0
}

// runPlugin instantiates the WASM plugin and calls its generate export
// for language. A non-zero return code means the response carries an
// error message.
func runPlugin(ctx context.Context, pluginPath, language string, requestBuf []byte) (*ddsbin.Response, error) {
	pluginBin, err := os.ReadFile(pluginPath)
	if err != nil {
		return nil, err
	}

	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(16384)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)
	defer runtime.Close(ctx)

	pluginExe, err := runtime.CompileModule(ctx, pluginBin)
	if err != nil {
		return nil, err
	}
	plugin, err := runtime.InstantiateModule(ctx, pluginExe, wasm.NewModuleConfig())
	if err != nil {
		return nil, err
	}
	mem := plugin.Memory()

	wasmAlloc := plugin.ExportedFunction("ddsidl_codegen_allocate")
	wasmGenerate := plugin.ExportedFunction("ddsidl_codegen_generate/" + language)
	if wasmAlloc == nil || wasmGenerate == nil {
		return nil, fmt.Errorf("%s does not export a %s generator", pluginPath, language)
	}

	results, err := wasmAlloc.Call(ctx, uint64(len(requestBuf)))
	if err != nil {
		return nil, err
	}
	requestPtr := uint32(results[0])
	if requestPtr == 0 || !mem.Write(requestPtr, requestBuf) {
		return nil, fmt.Errorf("Failed to copy request into plugin memory")
	}

	results, err = wasmAlloc.Call(ctx, 4)
	if err != nil {
		return nil, err
	}
	responsePtrPtr := uint32(results[0])

	results, err = wasmGenerate.Call(ctx, uint64(requestPtr), uint64(responsePtrPtr))
	if err != nil {
		return nil, err
	}
	rc := uint8(results[0])

	responsePtr, ok := mem.ReadUint32Le(responsePtrPtr)
	if !ok {
		return nil, fmt.Errorf("Failed to read response pointer")
	}
	responseLen, ok := mem.ReadUint32Le(responsePtr)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message length")
	}
	responseBuf, ok := mem.Read(responsePtr, responseLen)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message")
	}
	response, err := ddsbin.DecodeResponse(responseBuf)
	if err != nil {
		return nil, fmt.Errorf("decoding plugin response: %w", err)
	}
	if rc != 0 && response.Error == "" {
		response.Error = fmt.Sprintf("Plugin failed with status %d", rc)
	}
	return response, nil
}

// locatePlugin searches a colon-separated path for the plugin
// implementing language.
func locatePlugin(searchPath, language string) (string, error) {
	if searchPath == "" {
		searchPath = os.Getenv(pluginPathEnv)
	}
	if searchPath == "" {
		return "", fmt.Errorf("No plugin path set, use --plugin-path= or $%s", pluginPathEnv)
	}
	basename := fmt.Sprintf("ddsidl-codegen-%s.wasm", language)
	for _, dir := range filepath.SplitList(searchPath) {
		if dir == "" {
			continue
		}
		pluginPath := filepath.Join(dir, basename)
		if _, err := os.Stat(pluginPath); err == nil {
			return pluginPath, nil
		}
	}
	return "", fmt.Errorf("Codegen plugin %s not found in plugin path", basename)
}
