// Package hdmap is an in-memory spatial database for high-definition road
// maps.
//
// A Store holds roads (with their sections, lanes and lane boundaries), lane
// links across junctions, map objects and junctions. Lane center lines, links
// and objects are indexed in R-trees so location queries stay fast on large
// maps.
//
// # Coordinate Modes
//
// A store works in one of three coordinate modes, fixed at creation:
//
//	Geographic  X/Y/Z are longitude, latitude (degrees) and altitude (m)
//	ENU         X/Y/Z are east, north, up metres around Options.Center
//	Cartesian   X/Y/Z are raw planar units
//
// Geographic curves handed to an ENU store are converted into the local
// frame. UpdateCenter moves the ENU frame; stored geometry keeps its
// geographic position.
//
// # Basic Usage
//
//	opts := hdmap.DefaultOptions()
//	opts.CoordMode = hdmap.ENU
//	opts.Center = hdmap.LLA{Lon: 121.47, Lat: 31.23}
//	store, err := hdmap.New(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := store.InsertRoads(roads); err != nil {
//	    log.Printf("some roads were skipped: %v", err)
//	}
//
// # Location Queries
//
//	// Nearest lane within 5 m, preferring lanes heading north-east
//	hit, ok := store.NearestLane(pos, 5, hdmap.WithYaw(math.Pi/4))
//
//	// Everything in a box
//	lanes := store.SearchLanes(hdmap.EnvelopeAround(pos.X, pos.Y, 50))
//	signs := store.SearchObjects(env, hdmap.WithObjectTypes(hdmap.ObjectSign))
//
//	// Painted lane edges 50 m ahead and 10 m behind
//	runs, ok := store.GetLaneBoundaries(pos, yaw, 50, 10)
//
// # Topology
//
// NextLanes and PrevLanes follow a lane into the adjacent section of its road
// or, at a road end, along lane links. LeftLane and RightLane step across
// the section. PriorityCmp compares the right of way of two junction roads.
//
// # Concurrency
//
// All Store methods are safe for concurrent use. CachedStore adds an LRU
// cache in front of the nearest-lane queries.
package hdmap
