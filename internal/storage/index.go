package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/document"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/workspace"
)

// Write replaces the index with the nodes of doc and the bindings, calls
// and diagnostics of rep, in one transaction.
func (db *DB) Write(ctx context.Context, doc *document.Document, rep workspace.Report) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := truncate(ctx, tx); err != nil {
		return err
	}

	for i, n := range doc.Nodes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO nodes (id, kind, parent, socket, seq) VALUES (?, ?, ?, ?, ?)`,
			n.ID.String(), n.Kind, nullable(n.Parent), n.Socket, i,
		)
		if err != nil {
			return fmt.Errorf("indexing node %s: %w", n.ID, err)
		}
	}
	for _, s := range rep.Scopes {
		for pos, b := range s.Bindings {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO bindings (scope_root, position, name, type, role, owner) VALUES (?, ?, ?, ?, ?, ?)`,
				s.RootID.String(), pos, b.Name, b.Type, b.Role, b.OwnerID.String(),
			)
			if err != nil {
				return fmt.Errorf("indexing binding %s of %s: %w", b.Name, s.RootID, err)
			}
		}
	}
	for _, c := range rep.Calls {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO calls (node_id, name, function_id, signature) VALUES (?, ?, ?, ?)`,
			c.NodeID.String(), c.Name, nullable(c.FunctionID), c.Signature,
		)
		if err != nil {
			return fmt.Errorf("indexing call %s: %w", c.NodeID, err)
		}
	}
	for _, d := range rep.Diagnostics {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO diagnostics (node_id, kind, message, disabled) VALUES (?, ?, ?, ?)`,
			d.NodeID.String(), d.Kind, d.Message, d.Disabled,
		)
		if err != nil {
			return fmt.Errorf("indexing diagnostic of %s: %w", d.NodeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Binding index written.", "nodes", len(doc.Nodes), "scopes", len(rep.Scopes), "diagnostics", len(rep.Diagnostics))
	return nil
}

// Bindings returns the bindings visible in a scope root, in lookup order.
func (db *DB) Bindings(ctx context.Context, scopeRoot nodeid.ID) ([]workspace.BindingReport, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, type, role, owner FROM bindings WHERE scope_root = ? ORDER BY position`,
		scopeRoot.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workspace.BindingReport
	for rows.Next() {
		var b workspace.BindingReport
		var owner string
		if err := rows.Scan(&b.Name, &b.Type, &b.Role, &owner); err != nil {
			return nil, err
		}
		b.OwnerID = nodeid.ID(owner)
		out = append(out, b)
	}
	return out, rows.Err()
}

// FindDefinitions returns the scope roots that can see name, with the owner
// of the binding each one resolves it to.
func (db *DB) FindDefinitions(ctx context.Context, name string) (map[nodeid.ID]nodeid.ID, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT scope_root, owner FROM bindings WHERE name = ? ORDER BY scope_root, position`,
		name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[nodeid.ID]nodeid.ID{}
	for rows.Next() {
		var root, owner string
		if err := rows.Scan(&root, &owner); err != nil {
			return nil, err
		}
		if _, seen := out[nodeid.ID(root)]; !seen {
			out[nodeid.ID(root)] = nodeid.ID(owner)
		}
	}
	return out, rows.Err()
}

// Diagnostics returns every stored diagnostic in node order.
func (db *DB) Diagnostics(ctx context.Context) ([]workspace.Diagnostic, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT d.node_id, d.kind, d.message, d.disabled
		 FROM diagnostics d JOIN nodes n ON n.id = d.node_id
		 ORDER BY n.seq`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workspace.Diagnostic
	for rows.Next() {
		var d workspace.Diagnostic
		var id string
		if err := rows.Scan(&id, &d.Kind, &d.Message, &d.Disabled); err != nil {
			return nil, err
		}
		d.NodeID = nodeid.ID(id)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Calls returns every stored call site keyed by node id.
func (db *DB) Calls(ctx context.Context) (map[nodeid.ID]workspace.CallReport, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT node_id, name, function_id, signature FROM calls`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[nodeid.ID]workspace.CallReport{}
	for rows.Next() {
		var id, name, sig string
		var fn sql.NullString
		if err := rows.Scan(&id, &name, &fn, &sig); err != nil {
			return nil, err
		}
		out[nodeid.ID(id)] = workspace.CallReport{NodeID: nodeid.ID(id), Name: name, FunctionID: nodeid.ID(fn.String), Signature: sig}
	}
	return out, rows.Err()
}

func nullable(id nodeid.ID) any {
	if id.IsZero() {
		return nil
	}
	return id.String()
}
