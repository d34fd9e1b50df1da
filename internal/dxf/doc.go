// Package dxf reads and writes the subset of ASCII DXF drawings that the
// kerf pipeline understands.
//
// Only the ENTITIES section contributes geometry. LINE, ARC, CIRCLE, TEXT
// and MTEXT become the matching kerf segment types; every other entity is
// kept as kerf.Unsupported so that callers can report or reject it. From
// the HEADER section, $ACADVER and $DWGCODEPAGE select how text values are
// decoded: drawings from AutoCAD 2007 (AC1021) onwards are UTF-8, older
// ones use the legacy code page they declare.
//
// The writer emits an AutoCAD R12 (AC1009) file with an ANSI_1252 code
// page, which every CAM and laser software reads.
package dxf
