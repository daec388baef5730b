package drivemap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	driveFileFields  = "parents,id,name,mimeType,size,modifiedTime,webViewLink"
	driveFilesFields = "nextPageToken,files(parents,id,name,mimeType,size,modifiedTime,webViewLink)"
	drivePermFields  = "id,type,role,emailAddress,domain,allowFileDiscovery"
	drivePermsFields = "nextPageToken,permissions(" + drivePermFields + ")"
)

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return s
}

func queryFiles(ctx context.Context, s *drive.Service, query string) (results []*drive.File, err error) {
	err = s.Files.List().
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Q(query).
		Fields(driveFilesFields).
		Pages(ctx, func(list *drive.FileList) error {
			results = append(results, list.Files...)
			return nil
		})
	if err != nil {
		return nil, newAPIError("failed to query files", err)
	}
	return results, nil
}

func findAllIn(ctx context.Context, s *drive.Service, parentID FileID) (files []*drive.File, err error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(string(parentID)))
	return queryFiles(ctx, s, q)
}

func findFoldersByNameIn(ctx context.Context, s *drive.Service, parentID FileID, name string) (files []*drive.File, err error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), escapeQuery(string(parentID)), mimeTypeGoogleAppFolder)
	return queryFiles(ctx, s, q)
}

func findFilesByNameIn(ctx context.Context, s *drive.Service, parentID FileID, name string) (files []*drive.File, err error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType != '%s' and trashed = false",
		escapeQuery(name), escapeQuery(string(parentID)), mimeTypeGoogleAppFolder)
	return queryFiles(ctx, s, q)
}

func findByID(ctx context.Context, s *drive.Service, fileID FileID) (file *drive.File, found bool, err error) {
	file, err = s.Files.Get(string(fileID)).
		Context(ctx).
		SupportsAllDrives(true).
		Fields(driveFileFields).
		Do()
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && gErr.Code == 404 {
			return nil, false, nil
		}
		return nil, false, newAPIError("failed to get file", err)
	}
	return file, true, nil
}

func createDirIn(ctx context.Context, s *drive.Service, parentID FileID, name string) (file *drive.File, err error) {
	file, err = s.Files.Create(&drive.File{
		Name:     name,
		MimeType: mimeTypeGoogleAppFolder,
		Parents:  []string{string(parentID)},
	}).
		Context(ctx).
		SupportsAllDrives(true).
		Fields(driveFileFields).
		Do()
	if err != nil {
		return nil, newAPIError("failed to create directory", err)
	}
	return file, nil
}

func createFileIn(ctx context.Context, s *drive.Service, parentID FileID, name string, data []byte) (file *drive.File, err error) {
	file, err = s.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{string(parentID)},
	}).
		Context(ctx).
		SupportsAllDrives(true).
		Media(bytes.NewReader(data)).
		Fields(driveFileFields).
		Do()
	if err != nil {
		return nil, newAPIError("failed to create file", err)
	}
	return file, nil
}

func downloadFile(ctx context.Context, s *drive.Service, file RemoteFile) (data []byte, err error) {
	if file.IsAppFile() {
		return nil, fmt.Errorf("cannot download google-apps file %q: %w", file.Name, ErrNotReadable)
	}

	resp, err := s.Files.Get(string(file.ID)).
		Context(ctx).
		SupportsAllDrives(true).
		Download()
	if err != nil {
		return nil, newAPIError("failed to download file", err)
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			closeErr = newIOError("failed to close file body", closeErr)
		}
		err = errors.Join(err, closeErr)
	}()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, newIOError("failed to read file body", err)
	}
	return data, nil
}

func uploadFile(ctx context.Context, s *drive.Service, fileID FileID, data []byte) (file *drive.File, err error) {
	file, err = s.Files.Update(string(fileID), &drive.File{}).
		Context(ctx).
		SupportsAllDrives(true).
		Media(bytes.NewReader(data)).
		Fields(driveFileFields).
		Do()
	if err != nil {
		return nil, newAPIError("failed to upload file", err)
	}
	return file, nil
}

func removeFile(ctx context.Context, s *drive.Service, fileID FileID, moveToTrash bool) (err error) {
	if moveToTrash {
		_, err := s.Files.Update(string(fileID), &drive.File{Trashed: true}).
			Context(ctx).
			SupportsAllDrives(true).
			Do()
		if err != nil {
			return newAPIError("failed to move file to trash", err)
		}
		return nil
	}
	err = s.Files.Delete(string(fileID)).
		Context(ctx).
		SupportsAllDrives(true).
		Do()
	if err != nil {
		return newAPIError("failed to delete file", err)
	}
	return nil
}

func createPermission(ctx context.Context, s *drive.Service, fileID FileID, perm *drive.Permission) (permission *drive.Permission, err error) {
	permission, err = s.Permissions.Create(string(fileID), perm).
		Context(ctx).
		SupportsAllDrives(true).
		Fields(drivePermFields).
		Do()
	if err != nil {
		return nil, newAPIError("failed to set permission", err)
	}
	return permission, nil
}

func listPermissions(ctx context.Context, s *drive.Service, fileID FileID) (permissions []*drive.Permission, err error) {
	err = s.Permissions.List(string(fileID)).
		SupportsAllDrives(true).
		Fields(drivePermsFields).
		Pages(ctx, func(list *drive.PermissionList) error {
			permissions = append(permissions, list.Permissions...)
			return nil
		})
	if err != nil {
		return nil, newAPIError("failed to list permissions", err)
	}
	return permissions, nil
}

func updatePermissionRole(ctx context.Context, s *drive.Service, fileID FileID, permID string, role Role) error {
	_, err := s.Permissions.Update(string(fileID), permID, &drive.Permission{Role: string(role)}).
		Context(ctx).
		SupportsAllDrives(true).
		Fields(drivePermFields).
		Do()
	if err != nil {
		return newAPIError("failed to set permission", err)
	}
	return nil
}
