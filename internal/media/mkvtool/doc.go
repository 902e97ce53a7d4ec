// Package mkvtool writes chapters and global tags into Matroska files with
// mkvpropedit. Chapters and tags are rendered to temporary XML files that
// mkvpropedit applies in place; the media data is never remuxed.
package mkvtool
