package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/client/client"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

func (a *App) projectFiles(ctx context.Context, projectID string) ([]models.ProjectFile, error) {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.api.ListProjectFiles(rctx, projectID)
}

func findFile(files []models.ProjectFile, id string) (models.ProjectFile, error) {
	for _, f := range files {
		if f.ID == id {
			return f, nil
		}
	}
	return models.ProjectFile{}, fmt.Errorf("file %s: %w", id, client.ErrNotFound)
}

func (a *App) Files(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("files <project-id>")
	}
	p, err := a.accessibleProject(ctx, args[0])
	if err != nil {
		return err
	}
	files, err := a.projectFiles(ctx, p.ID)
	if err != nil {
		return err
	}
	printFiles(a.out, files)
	return nil
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("upload <project-id> <path>...")
	}
	if err := a.require(access.CanUploadFiles); err != nil {
		return err
	}
	p, err := a.accessibleProject(ctx, args[0])
	if err != nil {
		return err
	}

	results := a.files.UploadFiles(ctx, p.ID, args[1:])
	failed := printResults(a.out, results)
	fmt.Fprintf(a.out, "%d of %d files uploaded to %q\n", len(results)-failed, len(results), p.Name)
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("download <project-id> <file-id>")
	}
	p, err := a.accessibleProject(ctx, args[0])
	if err != nil {
		return err
	}
	files, err := a.projectFiles(ctx, p.ID)
	if err != nil {
		return err
	}
	f, err := findFile(files, args[1])
	if err != nil {
		return err
	}

	path, err := a.files.Download(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s\n", path)
	return nil
}

func (a *App) DeleteFile(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("deletefile <project-id> <file-id>")
	}
	if err := a.require(access.CanUploadFiles); err != nil {
		return err
	}
	p, err := a.accessibleProject(ctx, args[0])
	if err != nil {
		return err
	}
	files, err := a.projectFiles(ctx, p.ID)
	if err != nil {
		return err
	}
	f, err := findFile(files, args[1])
	if err != nil {
		return err
	}

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.api.DeleteFile(rctx, f.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", f.FileName)
	return nil
}
