package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/df07/go-shape-kernel/pkg/core"
	"github.com/df07/go-shape-kernel/pkg/loaders"
	"github.com/df07/go-shape-kernel/pkg/stress"
	"github.com/df07/go-shape-kernel/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	meshPath := flag.String("mesh", "", "Also serve a case for the triangles of a PLY, glTF or GLB mesh")
	flag.Parse()

	webServer := server.NewServer(*port)
	if *meshPath != "" {
		data, err := loaders.LoadMesh(*meshPath)
		if err != nil {
			log.Fatalf("Error loading mesh: %v", err)
		}
		mesh, err := data.TriangleMesh(core.Identity(), core.Identity(), false)
		if err != nil {
			log.Fatalf("Error building mesh %s: %v", *meshPath, err)
		}
		webServer.AddCase(stress.MeshCase("mesh:"+filepath.Base(*meshPath), mesh))
	}

	log.Printf("Shape intersection stress server")
	log.Printf("Cases: %v", webServer.CaseNames())
	log.Printf("Stream runs from http://localhost:%d/api/stress?shape=all", *port)
	log.Printf("Trace single rays with http://localhost:%d/api/inspect", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
