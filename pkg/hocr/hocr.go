// Package hocr reads and writes hOCR, the HTML microformat used by OCR
// engines such as Tesseract to describe recognized text and its layout.
//
// Parsing produces ocrtree elements:
//
//   - ocr_page → page, with scan_res, ppageno, lpageno and image from its title
//   - ocr_carea, ocr_par → content areas and paragraphs
//   - ocr_line, ocr_header, ocr_footer, ocr_caption, ocr_textfloat → lines,
//     with their baseline and textangle
//   - ocrx_word, ocrx_cinfo → words and characters, with x_wconf, x_font
//     and x_fsize
//
// Elements with other classes, or no class at all, are transparent: their
// children are attached to the nearest recognized ancestor.
//
// Main Functions:
//
//   - ParseDocument: every page of an hOCR file
//   - ParsePage: the first page of an hOCR file
//   - Generate: hOCR markup for a Document
//   - ExtractText: plain text, one line per OCR line
package hocr
