// Command gophmedia stores media attachments encrypted at rest and serves
// their thumbnails.
//
// Subcommands:
//
//	import FILE [--type CT]         store a file, print its attachment id
//	export ID -o OUT                write the decrypted attachment
//	list                            print all attachment ids
//	delete ID                       remove an attachment and its blobs
//	thumbnail ID -o OUT             write the thumbnail, generating it if needed
//	thumbnail --all [--out-dir D]   generate thumbnails for every attachment
//	encrypt --key-hex K IN OUT      seal a file with raw 64-byte key material
//	decrypt --key-hex K IN OUT      open a sealed file
//	length N                        sealed size of an N byte plaintext
//
// Global flags and the JSON file given with -c configure the database, the
// blob backend and thumbnail generation; see internal/config.
package main
