package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/notesync/internal/store"
)

func (a *App) Add(ctx context.Context) error {
	title, err := GetSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	content, err := GetSimpleText(a.reader, "Content", os.Stdout)
	if err != nil {
		return err
	}
	preacher, err := GetSimpleText(a.reader, "Preacher (optional)", os.Stdout)
	if err != nil {
		return err
	}

	now := time.Now()
	rec, err := a.session.Store.Put(ctx, store.PutInput{
		Title:    &title,
		Content:  &content,
		Preacher: &preacher,
		Date:     &now,
	})
	if err != nil {
		return err
	}

	printlnFn("Created " + rec.ID)
	return nil
}

func (a *App) List(ctx context.Context) error {
	recs, err := a.session.Store.List(ctx)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		state := "synced"
		if rec.Dirty() {
			state = "pending"
		}
		printlnFn(fmt.Sprintf("%s  %-30s  %s", rec.ID, rec.Fields.Title, state))
	}
	return nil
}

func (a *App) Show(ctx context.Context, id string) error {
	rec, err := a.session.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		printlnFn("Not found: " + id)
		return nil
	}

	printlnFn("Title:    " + rec.Fields.Title)
	printlnFn("Content:  " + rec.Fields.Content)
	printlnFn("Preacher: " + rec.Fields.Preacher)
	printlnFn("Updated:  " + rec.Metadata.UpdatedAt.Format(time.RFC3339))
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	return a.session.Store.SoftDelete(ctx, id)
}

func (a *App) Sync(ctx context.Context) error {
	if err := a.session.Engine.Sync(ctx); err != nil {
		return err
	}
	printlnFn("Sync complete")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	snap := a.session.Status.Snapshot()

	last := "never"
	if !snap.LastSyncTime.IsZero() {
		last = snap.LastSyncTime.Format(time.RFC3339)
	}
	printlnFn(fmt.Sprintf("pending: %d, syncing: %v, last sync: %s",
		snap.PendingChangesCount, snap.IsSyncing, last))
	if snap.LastError != nil {
		printlnFn("last error: " + snap.LastError.Error())
	}
	return nil
}
