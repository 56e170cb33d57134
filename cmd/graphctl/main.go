// Command graphctl manipulates a concept graph document from the command
// line without running the service.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/domain/core/entities"
	domainlex "conceptgraph-backend/domain/lexicon"
	infralex "conceptgraph-backend/infrastructure/lexicon"
	"conceptgraph-backend/infrastructure/persistence"
)

var (
	documentPath string
	corpusPath   string
)

func main() {
	root := &cobra.Command{
		Use:           "graphctl",
		Short:         "Inspect and mutate a concept graph document",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&documentPath, "document", "data/graph.json", "graph document path")
	root.PersistentFlags().StringVar(&corpusPath, "corpus", "config/lexicon.yaml", "lexicon corpus path")

	root.AddCommand(
		newAddNodeCmd(),
		newAddEdgeCmd(),
		newAddDescriptorCmd(),
		newShowCmd(),
		newValidateCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newAddNodeCmd() *cobra.Command {
	var sense string
	var parent string

	cmd := &cobra.Command{
		Use:   "add-node <label> [label...]",
		Short: "Add a concept with the given labels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lex, graph, store, err := open()
			if err != nil {
				return err
			}

			var concept *entities.Concept
			if sense == "" && len(args) == 1 {
				concept, err = entities.ConceptFromLabel(lex, args[0])
			} else {
				if sense == "" {
					return fmt.Errorf("--sense is required when giving multiple labels")
				}
				concept, err = entities.NewConcept(lex, args, sense)
			}
			if err != nil {
				return err
			}

			if parent == "" {
				err = graph.AddNode(concept)
			} else {
				parentConcept, ok := graph.FindByLabel(parent)
				if !ok {
					return fmt.Errorf("no concept carries label %q", parent)
				}
				err = graph.AddNodeUnder(concept, parentConcept)
			}
			if err != nil {
				return err
			}

			if err := store.Save(graph); err != nil {
				return err
			}
			fmt.Printf("added %s\n", concept)
			return nil
		},
	}
	cmd.Flags().StringVar(&sense, "sense", "", "canonical sense, e.g. dog.n.01")
	cmd.Flags().StringVar(&parent, "parent", "", "attach under the concept carrying this label")
	return cmd
}

func newAddEdgeCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "add-edge <source-label> <target-label>",
		Short: "Add a generalization edge between two concepts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, graph, store, err := open()
			if err != nil {
				return err
			}

			source, ok := graph.FindByLabel(args[0])
			if !ok {
				return fmt.Errorf("no concept carries label %q", args[0])
			}
			target, ok := graph.FindByLabel(args[1])
			if !ok {
				return fmt.Errorf("no concept carries label %q", args[1])
			}

			relation, err := entities.NewRelation(source, target, label)
			if err != nil {
				return err
			}
			if err := graph.AddEdge(relation); err != nil {
				return err
			}

			if err := store.Save(graph); err != nil {
				return err
			}
			fmt.Printf("added %s\n", relation)
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "optional relation label")
	return cmd
}

func newAddDescriptorCmd() *cobra.Command {
	var asSynonym bool

	cmd := &cobra.Command{
		Use:   "add-descriptor <label> <target-label>",
		Short: "Attach a label as a new child concept, or as a synonym of the target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, graph, store, err := open()
			if err != nil {
				return err
			}

			target, ok := graph.FindByLabel(args[1])
			if !ok {
				return fmt.Errorf("no concept carries label %q", args[1])
			}

			if asSynonym {
				if err := graph.AddDescriptorToNode(args[0], target); err != nil {
					return err
				}
				fmt.Printf("added synonym %q to %s\n", args[0], target)
			} else {
				concept, err := graph.AddDescriptorAsNewNode(args[0], target)
				if err != nil {
					return err
				}
				fmt.Printf("added %s under %s\n", concept, target)
			}

			return store.Save(graph)
		},
	}
	cmd.Flags().BoolVar(&asSynonym, "synonym", false, "attach as a synonym instead of a new concept")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the graph layer by layer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, graph, _, err := open()
			if err != nil {
				return err
			}

			if graph.NodeCount() == 0 {
				fmt.Println("graph is empty")
				return nil
			}

			depths, err := graph.LayeredDepths()
			if err != nil {
				return err
			}

			layers := make(map[int][]string)
			maxDepth := 0
			for concept, depth := range depths {
				layers[depth] = append(layers[depth], concept.String())
				if depth > maxDepth {
					maxDepth = depth
				}
			}
			for depth := 0; depth <= maxDepth; depth++ {
				sort.Strings(layers[depth])
				fmt.Printf("%d: %s\n", depth, strings.Join(layers[depth], ", "))
			}
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Audit the graph document against its invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, graph, _, err := open()
			if err != nil {
				return err
			}
			if err := graph.Validate(); err != nil {
				return err
			}
			fmt.Printf("ok: %d concepts, %d relations\n", graph.NodeCount(), graph.EdgeCount())
			return nil
		},
	}
}

// open loads the lexicon corpus and the graph document, starting an empty
// graph when no document exists yet.
func open() (domainlex.Lexicon, *aggregates.ConceptGraph, *persistence.Store, error) {
	lex, err := infralex.NewStaticFromFile(corpusPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading lexicon corpus: %w", err)
	}

	store, err := persistence.NewStore(documentPath, zap.NewNop())
	if err != nil {
		return nil, nil, nil, err
	}

	if !store.Exists() {
		graph, err := aggregates.NewConceptGraph(lex)
		if err != nil {
			return nil, nil, nil, err
		}
		return lex, graph, store, nil
	}

	graph, err := store.Load(lex)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading graph document: %w", err)
	}
	return lex, graph, store, nil
}
