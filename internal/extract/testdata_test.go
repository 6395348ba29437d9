package extract

// sampleDecision mimics the text layer of a decision sheet.
const sampleDecision = `Cour de cassation - Responsabilité civile
Ref : 101
Juridiction : Cour de cassation
Pays/Ville : Maroc / Rabat
N° de décision : 245
Date de décision : 12/05/2010
N° de dossier : 1234/1/2/2009
Type de décision : Arrêt
Chambre : Civile
Thème : Responsabilité délictuelle
Mots clés : Préjudice, réparation,
faute lourde
Base légale : Article 77 du DOC
Source : Revue de la Cour Suprême
Résumé en français
La responsabilité du gardien est engagée
dès lors que la chose a causé le dommage.
Résumé en arabe
مسؤولية الحارس تقوم متى تسببت الشيء في الضرر
Texte intégral
باسم جلالة الملك وطبقا للقانون
إن محكمة النقض بعد المداولة طبقا للقانون`
