// Package pkg holds the arteria libraries.
//
// # Overview
//
// Arteria grows a 2-D arterial tree that perfuses N randomly placed terminal
// points from one inlet, keeping Poiseuille flow and Murray's law exact at
// every junction. The pkg directory is organized into:
//
//  1. [core] - growth logic (geometry, vessels, sampler, junction solver, builder)
//  2. [pipeline] - orchestration (sample → grow → render) with caching
//  3. [render] - vascular SVG, node-link diagrams and rasters
//  4. [storage] and [cache] - persisted runs and cached intermediate results
//  5. [api] - the HTTP API served by `arteria serve`
//
// # Architecture
//
// The typical data flow:
//
//	config.Params
//	     ↓
//	[core/sampler] (terminal points, minimum spacing R/√N)
//	     ↓
//	[core/grow] (insert terminals, solve junctions with [core/junction])
//	     ↓
//	[render] (SVG/PNG/PDF/DOT/raster) and [io] (JSON document)
//
// # Quick Start
//
//	rng := pipeline.NewRand(params.Seed)
//	res, err := sampler.Sample(rng, float64(params.PerfusionRadius), params.Terminals, sampler.Options{})
//	if err != nil {
//	    return err
//	}
//	b, err := grow.New(params.Growth())
//	if err != nil {
//	    return err
//	}
//	tree, err := b.Grow(ctx, res.Points)
//
// Most callers use [pipeline.Runner] instead, which adds caching and
// rendering:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Params: config.Default()})
package pkg
