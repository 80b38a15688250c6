package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/beetlebugorg/hdmap/pkg/hdmap"
	"github.com/spf13/cobra"
)

var (
	radius     float64
	yawDeg     float64
	useLinks   bool
	forward    float64
	backward   float64
	searchKind string
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the loaded maps contain",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var nearestCmd = &cobra.Command{
	Use:   "nearest [x] [y]",
	Short: "Find the lane (or lane link) nearest to a point",
	Args:  cobra.ExactArgs(2),
	RunE:  runNearest,
}

var priorityCmd = &cobra.Command{
	Use:   "priority [road-a] [road-b]",
	Short: "Compare the right of way of two junction roads",
	Args:  cobra.ExactArgs(2),
	RunE:  runPriority,
}

var boundariesCmd = &cobra.Command{
	Use:   "boundaries [x] [y]",
	Short: "List the visible lane edges around a point",
	Args:  cobra.ExactArgs(2),
	RunE:  runBoundaries,
}

var searchCmd = &cobra.Command{
	Use:   "search [x] [y]",
	Short: "List map elements in a box around a point",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func runInfo(cmd *cobra.Command, args []string) error {
	store, err := loadStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mode:       %s\n", store.Mode())
	fmt.Fprintf(out, "roads:      %d\n", len(store.Roads()))
	fmt.Fprintf(out, "lanes:      %d\n", len(store.Lanes()))
	fmt.Fprintf(out, "boundaries: %d\n", len(store.Boundaries()))
	fmt.Fprintf(out, "links:      %d\n", len(store.LaneLinks()))
	fmt.Fprintf(out, "objects:    %d\n", len(store.Objects()))
	fmt.Fprintf(out, "junctions:  %d\n", len(store.Junctions()))
	return nil
}

func runNearest(cmd *cobra.Command, args []string) error {
	p, err := parsePoint(args)
	if err != nil {
		return err
	}
	store, err := loadStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if useLinks {
		hit, ok := store.NearestLaneLink(p, radius)
		if !ok {
			return fmt.Errorf("no lane link within %g of %g,%g", radius, p.X, p.Y)
		}
		fmt.Fprintf(out, "link %d distance=%.3f s=%.3f\n", hit.Link, hit.Distance, hit.S)
		return nil
	}

	var opts []hdmap.QueryOption
	if cmd.Flags().Changed("yaw") {
		opts = append(opts, hdmap.WithYaw(yawDeg*math.Pi/180))
	}
	hit, ok := store.NearestLane(p, radius, opts...)
	if !ok {
		return fmt.Errorf("no lane within %g of %g,%g", radius, p.X, p.Y)
	}
	fmt.Fprintf(out, "lane %s distance=%.3f s=%.3f l=%.3f\n", hit.Lane, hit.Distance, hit.S, hit.L)
	return nil
}

func runPriority(cmd *cobra.Command, args []string) error {
	var ids [2]hdmap.RoadID
	for i, a := range args {
		v, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid road id %q: %w", a, err)
		}
		ids[i] = hdmap.RoadID(v)
	}
	store, err := loadStore()
	if err != nil {
		return err
	}
	p, err := store.PriorityCmp(ids[0], ids[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), p)
	return nil
}

func runBoundaries(cmd *cobra.Command, args []string) error {
	p, err := parsePoint(args)
	if err != nil {
		return err
	}
	store, err := loadStore()
	if err != nil {
		return err
	}
	runs, ok := store.GetLaneBoundaries(p, yawDeg*math.Pi/180, forward, backward)
	if !ok {
		return fmt.Errorf("no lane near %g,%g", p.X, p.Y)
	}
	out := cmd.OutOrStdout()
	for _, r := range runs {
		fmt.Fprintf(out, "%-5s %-12s boundaries=%v points=%d\n", r.Side, r.Mark, r.Boundaries, len(r.Points))
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	p, err := parsePoint(args)
	if err != nil {
		return err
	}
	store, err := loadStore()
	if err != nil {
		return err
	}
	env := hdmap.EnvelopeAround(p.X, p.Y, radius)
	out := cmd.OutOrStdout()

	switch searchKind {
	case "lanes":
		for _, k := range store.SearchLanes(env) {
			fmt.Fprintln(out, k)
		}
	case "roads":
		for _, id := range store.SearchRoads(env) {
			fmt.Fprintln(out, id)
		}
	case "boundaries":
		for _, id := range store.SearchBoundaries(env) {
			fmt.Fprintln(out, id)
		}
	case "objects":
		for _, id := range store.SearchObjects(env) {
			fmt.Fprintln(out, id)
		}
	default:
		return fmt.Errorf("unknown search kind %q", searchKind)
	}
	return nil
}

func parsePoint(args []string) (hdmap.Point, error) {
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return hdmap.Point{}, fmt.Errorf("invalid x %q: %w", args[0], err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return hdmap.Point{}, fmt.Errorf("invalid y %q: %w", args[1], err)
	}
	return hdmap.Point{X: x, Y: y}, nil
}
