// ccmgraph renders a project's structure as a Graphviz DOT graph and,
// optionally, a PNG, using emicklei/dot to build the graph and
// goccy/go-graphviz to rasterize it.
package main

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/emicklei/dot"
	"github.com/goccy/go-graphviz"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ccm-backup-reader/ccmbackup/config"
	"github.com/ccm-backup-reader/ccmbackup/object"
	"github.com/ccm-backup-reader/ccmbackup/store"
)

// buildStructureGraph renders a project's path->four-part-name map as a directory
// tree: one node per path segment, edges from each directory to its
// immediate children. Splitting this out from main lets it be unit
// tested without an open backup.
func buildStructureGraph(structure map[string]string) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	labeled := map[string]bool{}
	edgesSeen := map[string]bool{}

	label := func(p string) dot.Node {
		n := g.Node(p)
		if !labeled[p] {
			n = n.Label(path.Base(p))
			labeled[p] = true
		}
		return n
	}

	paths := make([]string, 0, len(structure))
	for p := range structure {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		segments := strings.Split(strings.Trim(p, "/"), "/")
		current := "/"
		label(current)
		for _, seg := range segments {
			parent := current
			if current == "/" {
				current = "/" + seg
			} else {
				current = current + "/" + seg
			}
			parentNode := label(parent)
			childNode := label(current)
			edgeKey := parent + "\x00" + current
			if !edgesSeen[edgeKey] {
				g.Edge(parentNode, childNode)
				edgesSeen[edgeKey] = true
			}
		}
		// attach the object identity on the leaf node itself
		g.Node(p).Label(fmt.Sprintf("%s\n%s", path.Base(p), structure[p]))
	}
	return g
}

// overlaySuccessors draws a dashed "successor" edge between any two
// structure members related by that relate-table edge, alongside the
// solid bind-derived containment edges buildStructureGraph already drew.
func overlaySuccessors(g *dot.Graph, ctx *object.Context, structureObjs map[object.Object]string) error {
	for obj, p := range structureObjs {
		successors, err := ctx.Successors(obj)
		if err != nil {
			return err
		}
		for _, s := range successors {
			if sp, ok := structureObjs[s]; ok {
				g.Edge(g.Node(p), g.Node(sp)).Label("successor").Attr("style", "dashed")
			}
		}
	}
	return nil
}

func renderPNG(dotText, outPath string) error {
	gv := graphviz.New()
	graph, err := graphviz.ParseBytes([]byte(dotText))
	if err != nil {
		return fmt.Errorf("ccmgraph: parse dot: %w", err)
	}
	defer graph.Close()
	if err := gv.RenderFilename(graph, graphviz.PNG, outPath); err != nil {
		return fmt.Errorf("ccmgraph: render png: %w", err)
	}
	return nil
}

func run(log *logrus.Logger, configFile, projectFPN, dotOut, pngOut string) error {
	cfg, err := config.LoadConfigFile(configFile)
	if err != nil {
		return err
	}
	s, err := store.Open(log, cfg.ImageFile)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := object.NewContext(log, s, cfg.BackupPath)
	project, ok, err := ctx.ObjectByFPN(projectFPN)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no such project: %s", projectFPN)
	}

	structureObjs, _, err := ctx.Structure(project)
	if err != nil {
		return err
	}
	structure := make(map[string]string, len(structureObjs))
	for obj, p := range structureObjs {
		fpn, err := obj.FourPartName()
		if err != nil {
			return err
		}
		structure[p] = fpn
	}

	g := buildStructureGraph(structure)
	if err := overlaySuccessors(g, ctx, structureObjs); err != nil {
		return err
	}

	if dotOut != "" {
		if err := os.WriteFile(dotOut, []byte(g.String()), 0644); err != nil {
			return fmt.Errorf("ccmgraph: write dot file: %w", err)
		}
		log.WithField("file", dotOut).Info("wrote dot graph")
	}
	if pngOut != "" {
		if err := renderPNG(g.String(), pngOut); err != nil {
			return err
		}
		log.WithField("file", pngOut).Info("wrote png graph")
	}
	return nil
}

func main() {
	app := kingpin.New("ccmgraph", "Render a CM project's structure as a Graphviz graph.")
	configFile := app.Flag("config", "Config file for ccmgraph.").Default("ccmquery.yaml").Short('c').String()
	project := app.Arg("project", "Four-part name of the project to render.").Required().String()
	dotOut := app.Flag("dot", "Path to write the Graphviz DOT file to.").Short('d').String()
	pngOut := app.Flag("png", "Path to write a rendered PNG to.").Short('o').String()
	debug := app.Flag("debug", "Enable debug-level logging.").Bool()

	app.UsageTemplate(kingpin.CompactUsageTemplate).Version("ccmgraph (ccm-backup-reader)").Author("ccm-backup-reader")
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logrus.New()
	logger.Level = logrus.InfoLevel
	if *debug {
		logger.Level = logrus.DebugLevel
	}

	if *dotOut == "" && *pngOut == "" {
		logger.Error("at least one of --dot or --png is required")
		os.Exit(1)
	}

	if err := run(logger, *configFile, *project, *dotOut, *pngOut); err != nil {
		logger.Errorf("ccmgraph failed: %v", err)
		os.Exit(1)
	}
}
