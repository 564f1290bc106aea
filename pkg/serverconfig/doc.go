// Package serverconfig reads and writes Project Zomboid server configs.
//
// A server config is a flat list of key=value lines, each optionally
// preceded by comment lines:
//
//	# The name shown in the server browser
//	PublicName=My Server
//
//	Mods=Hydrocraft;tsarslib
//	WorkshopItems=498441420;2392709985
//
// [Parse] keeps key order and the comment block above every key, so that
// [Document.Serialize] writes the file back with nothing but blank lines
// normalized. Values are typed as booleans, numbers or strings ([Value]).
//
// [Load] optionally copies the raw file to a backup next to the user's home
// directory before parsing; [Document.Save] replaces the file atomically
// under an advisory lock.
package serverconfig
