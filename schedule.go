package chore

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunForest drives every node reachable from roots to completion,
// parallelizing independent subgraphs and returning the first error
// observed. A child's context is cancelled as soon as any sibling (or
// the child's own sibling set) reports an error, and already-running
// peers are allowed to reach their own next suspension point rather than
// being forcibly killed.
func RunForest(ctx context.Context, roots []*SharedNode) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		root := root
		g.Go(func() error {
			return runNode(ctx, root)
		})
	}
	return g.Wait()
}

// runNode concurrently drives node's children to completion, then — only
// once every child has reached Done(Ok) — runs node itself. Because
// Exec is a *SharedNode's shared *TaskExecutable, calling Run on a node
// reached via multiple parents is safe: the latch makes every call but
// the first a no-op wait.
func runNode(ctx context.Context, node *SharedNode) error {
	g, childCtx := errgroup.WithContext(ctx)
	for _, child := range node.Children {
		child := child
		g.Go(func() error {
			return runNode(childCtx, child)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return node.Exec.Run(ctx)
}
