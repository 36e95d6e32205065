// Package pkg provides the core libraries for qsimplify, a pattern-based
// quantum circuit simplifier.
//
// # Overview
//
// qsimplify represents a circuit as a dense grid graph (qubits as rows,
// time steps as columns), finds occurrences of rule patterns in that grid
// and replaces them with shorter equivalents. The pkg directory is
// organized as follows:
//
//  1. [qgraph] - The circuit graph, its gates and normalization
//  2. [rules] - Rewrite rules, rule sets and rule documents
//  3. [simplify] - Search, rewrite and the iterative simplifier
//  4. [circuit], [io] - OpenQASM 2 and JSON graph documents
//  5. [pipeline] - Orchestration (decode → simplify → encode) with caching
//  6. [render] - Text grids and Graphviz node-link diagrams
//  7. [cache], [observability], [errors], [buildinfo] - Infrastructure
//
// # Architecture
//
//	OpenQASM 2 / JSON graph
//	         ↓
//	    [circuit] / [io] (decode)
//	         ↓
//	    [qgraph/clean] (normalize)
//	         ↓
//	    [simplify] (search + rewrite, per [rules.Set])
//	         ↓
//	    OpenQASM 2 / JSON / text / SVG / PNG / PDF
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/qsimplify/pkg/circuit"
//	    "github.com/matzehuels/qsimplify/pkg/rules"
//	    "github.com/matzehuels/qsimplify/pkg/simplify"
//	)
//
//	c, _ := circuit.ParseQASM(src)
//	g, _ := circuit.ToGraph(c)
//	set, _ := rules.Default()
//	res, err := simplify.New(set, simplify.Options{Iterations: 3}).Simplify(ctx, g)
//
// Most callers go through [pipeline.Runner], which adds input validation,
// caching and run hooks:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:       src,
//	    InputFormat: pipeline.FormatQASM,
//	})
//
// # Command-Line Interface
//
// The qsimplify binary (cmd/qsimplify) exposes the pipeline as the
// simplify, steps, render, rules, cache and serve commands.
package pkg
